// Package model はドメインモデルを定義する。
package model

import "time"

// ロール名の定義。クローズドな集合として扱う。
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// User はCMSの利用ユーザーを表す。
// このコアではユーザーは読み取り専用の識別情報として扱い、
// 作成はadduserサブコマンド経由でのみ行う。
type User struct {
	ID        string
	Name      string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole は指定ロールを保持しているかを返す。
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthorOnly はauthorロールのみを持ち、admin/editorいずれも持たないかを返す。
// 記事一覧の著者スコープ制限の判定に使用する。
func (u *User) IsAuthorOnly() bool {
	return u.HasRole(RoleAuthor) && !u.HasRole(RoleAdmin) && !u.HasRole(RoleEditor)
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
