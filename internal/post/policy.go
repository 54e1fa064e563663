package post

import "github.com/enrique7mc/MvcCms/internal/model"

// CanEditPost は指定ユーザーが記事を編集できるかを返す。
// admin/editorは全記事を編集でき、authorは自分が著者の記事のみ編集できる。
// ロール判定をハンドラーに散らさず、この関数に集約する。
func CanEditPost(user *model.User, p *model.Post) bool {
	if user == nil || p == nil {
		return false
	}
	if user.HasRole(model.RoleAdmin) || user.HasRole(model.RoleEditor) {
		return true
	}
	return user.HasRole(model.RoleAuthor) && p.AuthorID == user.ID
}

// CanDeletePost は指定ユーザーが記事を削除できるかを返す。
// 削除はadminまたはeditorに限定され、authorは自分の記事でも削除できない。
func CanDeletePost(user *model.User) bool {
	if user == nil {
		return false
	}
	return user.HasRole(model.RoleAdmin) || user.HasRole(model.RoleEditor)
}
