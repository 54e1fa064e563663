// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/enrique7mc/MvcCms/internal/repository"
)

// validRoles は付与可能なロールの集合。
var validRoles = map[string]bool{
	model.RoleAdmin:  true,
	model.RoleEditor: true,
	model.RoleAuthor: true,
}

// Service はユーザー管理のサービス層。
// ユーザー作成はadduserサブコマンドからのみ呼ばれる。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Create は新規ユーザーをロール付きで作成する。
// 名前・パスワード必須、ロールは admin/editor/author のいずれか1つ以上。
// 同名ユーザーが既に存在する場合はエラーを返す。
func (s *Service) Create(ctx context.Context, name, password string, roles []string) (*model.User, error) {
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "ユーザー名は必須です。"
	}
	if len(password) < 8 {
		fields["password"] = "パスワードは8文字以上で指定してください。"
	}
	if len(roles) == 0 {
		fields["roles"] = "ロールを1つ以上指定してください。"
	}
	for _, r := range roles {
		if !validRoles[r] {
			fields["roles"] = fmt.Sprintf("不明なロールです: %s", r)
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	existing, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError(map[string]string{
			"name": fmt.Sprintf("ユーザー %q は既に存在します。", name),
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Name:      name,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user, string(hash)); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("name", user.Name),
		slog.Any("roles", user.Roles),
	)

	return user, nil
}
