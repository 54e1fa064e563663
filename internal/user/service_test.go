package user

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/enrique7mc/MvcCms/internal/model"
)

type mockUserRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	findByNameFn         func(ctx context.Context, name string) (*model.User, error)
	passwordHashByNameFn func(ctx context.Context, name string) (string, error)
	createFn             func(ctx context.Context, user *model.User, passwordHash string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}

func (m *mockUserRepo) PasswordHashByName(ctx context.Context, name string) (string, error) {
	if m.passwordHashByNameFn != nil {
		return m.passwordHashByNameFn(ctx, name)
	}
	return "", nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User, passwordHash string) error {
	if m.createFn != nil {
		return m.createFn(ctx, user, passwordHash)
	}
	return nil
}

func TestCreate_Success(t *testing.T) {
	var createdUser *model.User
	var createdHash string
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User, passwordHash string) error {
			createdUser = user
			createdHash = passwordHash
			return nil
		},
	}
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), "alice", "secret-password", []string{model.RoleEditor, model.RoleAuthor})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if user.ID == "" {
		t.Error("IDが採番されていない")
	}
	if createdUser == nil || createdUser.Name != "alice" {
		t.Fatalf("リポジトリに渡されたユーザーが不正: %+v", createdUser)
	}
	// 平文パスワードが保存されていないこと
	if createdHash == "secret-password" {
		t.Error("パスワードが平文のまま渡されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(createdHash), []byte("secret-password")); err != nil {
		t.Errorf("保存されたハッシュが元のパスワードと照合できない: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		userName   string
		password   string
		roles      []string
		wantField  string
	}{
		{"名前必須", "", "password123", []string{model.RoleAdmin}, "name"},
		{"パスワード8文字以上", "alice", "short", []string{model.RoleAdmin}, "password"},
		{"ロール必須", "alice", "password123", nil, "roles"},
		{"不明なロール", "alice", "password123", []string{"superuser"}, "roles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockUserRepo{
				createFn: func(ctx context.Context, user *model.User, passwordHash string) error {
					t.Error("バリデーション失敗時にCreateが呼ばれてはいけない")
					return nil
				},
			})
			_, err := svc.Create(context.Background(), tt.userName, tt.password, tt.roles)
			if err == nil {
				t.Fatal("エラーを期待したがnil")
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Fatalf("エラー = %v, 期待コード %q", err, model.ErrCodeValidation)
			}
			if _, ok := apiErr.Fields[tt.wantField]; !ok {
				t.Errorf("フィールド %q のエラーメッセージがない: %v", tt.wantField, apiErr.Fields)
			}
		})
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	repo := &mockUserRepo{
		findByNameFn: func(ctx context.Context, name string) (*model.User, error) {
			return &model.User{ID: "existing", Name: name}, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "alice", "password123", []string{model.RoleAuthor})
	if err == nil {
		t.Fatal("重複ユーザー名でエラーを期待したがnil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("エラー = %v, 期待コード %q", err, model.ErrCodeValidation)
	}
}
