// Package model はドメインモデルを定義する。
package model

import "time"

// Post はCMSで管理するブログ記事を表す。
// IDはタイトル由来のURLセーフなスラッグで、全記事を通じて一意。
type Post struct {
	ID       string
	Title    string
	Content  string
	Tags     []string
	AuthorID string
	Author   *User // 取得系操作でJOINされる。書き込み時は参照しない。
	Created  time.Time
	// Published がnilの場合は下書き。過去の時刻が入っている場合のみ公開扱いとなる。
	Published *time.Time
}

// IsPublished は記事が公開済みかどうかを返す。
// Publishedが設定済みかつ現在時刻より過去である場合にtrueを返す。
func (p *Post) IsPublished() bool {
	return p.Published != nil && p.Published.Before(time.Now())
}

// HasTag は正規化済みタグ集合に指定タグが含まれるかを返す。
// タグは常に正規化済みで保存されるため、単純な一致比較で判定できる。
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
