// Package post は記事管理のドメインロジックを提供する。
// 入力の検証、ID・タグのスラッグ正規化、本文のサニタイズ、
// ロールによる認可はすべてこの層で行い、リポジトリには正規化済みの値のみを渡す。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/enrique7mc/MvcCms/internal/repository"
	"github.com/enrique7mc/MvcCms/internal/security"
	"github.com/enrique7mc/MvcCms/internal/slug"
)

// Input は記事の作成・編集で受け取るユーザー入力。
// IDが空の場合はTitleから導出する。
type Input struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	Published *time.Time
}

// PublishedPage は公開済み記事のページングされた一覧。
type PublishedPage struct {
	Posts      []*model.Post
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

// MetricsRecorder は記事操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordPostCreated()
	RecordPostUpdated()
	RecordPostDeleted()
}

// Service は記事管理のサービス層。
type Service struct {
	posts     repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnil許容で、nilの場合は記録をスキップする。
func NewService(
	posts repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		posts:     posts,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// List は管理画面向けの記事一覧を返す。
// authorロールのみのユーザーには自分が著者の記事だけを返し、
// admin/editorには全記事を返す。searchはタイトルの部分一致で絞り込む。
func (s *Service) List(ctx context.Context, user *model.User, search string) ([]*model.Post, error) {
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	var (
		posts []*model.Post
		err   error
	)
	if user.IsAuthorOnly() {
		posts, err = s.posts.GetByAuthor(ctx, user.ID, search)
	} else {
		posts, err = s.posts.GetAll(ctx, search)
	}
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}

	return posts, nil
}

// NewDraft は作成フォーム表示用の空の記事モデルを返す。
func (s *Service) NewDraft(user *model.User) *model.Post {
	draft := &model.Post{}
	if user != nil {
		draft.AuthorID = user.ID
	}
	return draft
}

// Create は新規記事を作成する。
// タイトル必須の検証の後、IDが未指定ならタイトルから導出し、
// IDと全タグをスラッグ正規化、本文をサニタイズしてから永続化する。
// created と author_id はここで確定し、以後変更されない。
func (s *Service) Create(ctx context.Context, user *model.User, in Input) (*model.Post, error) {
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	normalized, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	normalized.AuthorID = user.ID
	normalized.Created = time.Now()

	if err := s.posts.Create(ctx, normalized); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}
	slog.Info("post created",
		slog.String("post_id", normalized.ID),
		slog.String("author_id", user.ID),
	)

	return normalized, nil
}

// GetForEdit は編集フォーム表示用の記事を取得する。
// 記事が存在しない場合はPostNotFound、authorロールのみのユーザーが
// 他人の記事を開こうとした場合はPostAccessDeniedを返す。
func (s *Service) GetForEdit(ctx context.Context, user *model.User, id string) (*model.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	if !CanEditPost(user, p) {
		return nil, model.NewPostAccessDeniedError(id)
	}

	return p, nil
}

// Edit は指定IDの記事を更新する。
// 既存記事に対して編集権限を再検証した後、作成時と同じ正規化・サニタイズを
// 適用して上書きする。IDは編集のたびに再導出・再正規化される。
func (s *Service) Edit(ctx context.Context, user *model.User, id string, in Input) (*model.Post, error) {
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	existing, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if existing != nil && !CanEditPost(user, existing) {
		return nil, model.NewPostAccessDeniedError(id)
	}

	normalized, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	if err := s.posts.Edit(ctx, id, normalized); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPostUpdated()
	}
	slog.Info("post updated",
		slog.String("post_id", normalized.ID),
		slog.String("user_id", user.ID),
	)

	// author_idとcreatedは保存済みの値が保持される
	if existing != nil {
		normalized.AuthorID = existing.AuthorID
		normalized.Created = existing.Created
		normalized.Author = existing.Author
	}

	return normalized, nil
}

// GetForDelete は削除確認画面用の記事を取得する。
// 削除権限（admin/editor）がない場合はRoleRequired、
// 記事が存在しない場合はPostNotFoundを返す。
func (s *Service) GetForDelete(ctx context.Context, user *model.User, id string) (*model.Post, error) {
	if !CanDeletePost(user) {
		return nil, model.NewRoleRequiredError(model.RoleAdmin, model.RoleEditor)
	}

	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(id)
	}

	return p, nil
}

// Delete は指定IDの記事を削除する。権限検証はGetForDeleteと同一。
func (s *Service) Delete(ctx context.Context, user *model.User, id string) error {
	if !CanDeletePost(user) {
		return model.NewRoleRequiredError(model.RoleAdmin, model.RoleEditor)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordPostDeleted()
	}
	slog.Info("post deleted",
		slog.String("post_id", id),
		slog.String("user_id", user.ID),
	)

	return nil
}

// ListPublished は公開済み記事をpublished降順で返す。
func (s *Service) ListPublished(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.GetPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("公開済み記事の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// PageOfPublished は公開済み記事の1始まりページ窓と総件数を返す。
// pageが1未満、sizeが1未満または100超の場合はInvalidPageを返す。
func (s *Service) PageOfPublished(ctx context.Context, page, size int) (*PublishedPage, error) {
	if page < 1 || size < 1 || size > 100 {
		return nil, model.NewInvalidPageError(page, size)
	}

	total, err := s.posts.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("公開済み記事数の取得に失敗しました: %w", err)
	}

	posts, err := s.posts.GetPage(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("ページの取得に失敗しました: %w", err)
	}

	totalPages := (total + size - 1) / size

	return &PublishedPage{
		Posts:      posts,
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// ListByTag は指定タグを持つ記事を返す。
// タグは保存時と同じルールで正規化してから検索するため、大文字小文字を区別しない。
func (s *Service) ListByTag(ctx context.Context, tag string) ([]*model.Post, error) {
	normalized := slug.Make(tag)
	if normalized == "" {
		return nil, nil
	}

	posts, err := s.posts.GetByTag(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("タグでの記事検索に失敗しました: %w", err)
	}
	return posts, nil
}

// normalize は入力を検証し、正規化済みの記事モデルを構築する。
// 作成と編集で共通の処理。author_id/createdは呼び出し側で確定する。
func (s *Service) normalize(in Input) (*model.Post, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields["title"] = "タイトルは必須です。"
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = title
	}
	id = slug.Make(id)
	if id == "" && len(fields) == 0 {
		fields["id"] = "IDをタイトルから導出できません。英数字を含むIDを指定してください。"
	}

	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	content := in.Content
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}

	return &model.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		Tags:      slug.MakeAll(in.Tags),
		Published: in.Published,
	}, nil
}
