package post

import (
	"strings"

	"golang.org/x/net/html"
)

// Excerpt はサニタイズ済みHTMLからプレーンテキストの抜粋を生成する。
// タグを除去したテキストをmaxRunes文字で切り詰め、切り詰めた場合は末尾に…を付ける。
// 一覧表示用のサマリーとして使用する。
func Excerpt(rawHTML string, maxRunes int) string {
	if maxRunes <= 0 || rawHTML == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// io.EOFを含むエラーで走査終了。サニタイズ済み入力なので
			// パース不能な断片はここで切り捨てられるだけで問題ない。
			break
		}
		if tt == html.TextToken {
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}

	runes := []rune(b.String())
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes]) + "…"
}
