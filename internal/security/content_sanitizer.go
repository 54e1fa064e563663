// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は記事本文のHTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。サニタイズは記事の作成・編集時に
// ユーザー入力がシステムに入る境界で一度だけ行う。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 記事本文の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 見出し・段落・リスト・リンク・コード・画像など記事執筆に必要なタグのみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: h1-h4, p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 記事執筆で使用する基本タグ。
	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグ:
	// - href属性を許可、相対URLは不許可
	// - target="_blank" と rel="noreferrer noopener" を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// imgタグ: src属性はhttpsスキームのみ許可、altは許可
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
