// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/enrique7mc/MvcCms/internal/model"
)

// PostRepository は記事データの永続化インターフェース。
// 各メソッドは自己完結した作業単位で、複数呼び出しにまたがるトランザクションは持たない。
// 正規化（ID・タグのスラッグ化）は呼び出し側（サービス層）の責務で、
// リポジトリは渡された値をそのまま永続化する。
type PostRepository interface {
	// Get は指定IDの記事を著者情報付きで取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, id string) (*model.Post, error)

	// GetAll は全記事をcreated降順で返す。
	// titleContainsが空でない場合、タイトルの部分一致（大文字小文字を区別）で絞り込む。
	GetAll(ctx context.Context, titleContains string) ([]*model.Post, error)

	// GetByAuthor は指定著者の記事をcreated降順で返す。絞り込みはGetAllと同様。
	GetByAuthor(ctx context.Context, authorID, titleContains string) ([]*model.Post, error)

	// GetPublished は公開済み（publishedが過去）の記事をpublished降順で返す。
	GetPublished(ctx context.Context) ([]*model.Post, error)

	// GetByTag は正規化済みタグ集合に指定タグを含む記事を返す。
	// タグは保存時に正規化されているため、呼び出し側が正規化済みの値を渡す。
	GetByTag(ctx context.Context, tag string) ([]*model.Post, error)

	// GetPage は公開済み記事をpublished降順で (page-1)*size .. +size の窓で返す。
	// pageは1始まり。
	GetPage(ctx context.Context, page, size int) ([]*model.Post, error)

	// Create は記事を作成する。同一IDの記事が既に存在する場合は
	// 状態を変更せずに model.ErrCodeDuplicatePostID のAPIErrorを返す。
	Create(ctx context.Context, post *model.Post) error

	// Edit は指定IDの記事の id, title, content, published, tags を
	// updatedの値で上書きする。author_idとcreatedは保持される。
	// 記事が存在しない場合は model.ErrCodePostNotFound のAPIErrorを返す。
	Edit(ctx context.Context, id string, updated *model.Post) error

	// Delete は指定IDの記事を削除する。
	// 記事が存在しない場合は model.ErrCodePostNotFound のAPIErrorを返す。
	Delete(ctx context.Context, id string) error

	// CountPublished は公開済み記事の件数を返す。
	CountPublished(ctx context.Context) (int, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
// このコアではユーザーは読み取り専用の識別情報として扱い、
// 作成はadduserサブコマンドからのみ行う。
type UserRepository interface {
	// FindByID は指定IDのユーザーをロール付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByName はユーザー名でユーザーをロール付きで検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// PasswordHashByName はユーザー名に対応するパスワードハッシュを返す。
	// 見つからない場合は空文字列を返す。
	PasswordHashByName(ctx context.Context, name string) (string, error)

	// Create はユーザーとロールを同一トランザクションで作成する。
	Create(ctx context.Context, user *model.User, passwordHash string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
