// Package slug は記事IDとタグのURLセーフな正規化を提供する。
//
// 正規化はユーザー入力がシステムに入る境界（サービス層）で一度だけ行い、
// リポジトリ層は正規化済みの値をそのまま永続化する。
// 変換ルールは固定: 小文字化、空白とアンダースコアはハイフンに置換、
// それ以外の英数字とハイフン以外の文字は除去、連続ハイフンは1つに圧縮、
// 先頭末尾のハイフンは除去。同一入力には常に同一出力を返す（冪等）。
package slug

import "strings"

// Make は文字列をURLセーフなスラッグに正規化する。
// 例: "Hello World!" -> "hello-world"、"C# Tips" -> "c-tips"。
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '\t' || r == '\n' || r == '_' || r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// 記号やマルチバイト文字は除去する
		}
	}

	return strings.Trim(b.String(), "-")
}

// MakeAll は各要素を正規化したスラッグのスライスを返す。
// 正規化後に空になった要素と重複は取り除き、元の順序を保つ。
func MakeAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		t := Make(v)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
