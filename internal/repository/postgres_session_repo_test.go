package repository

import (
	"testing"
	"time"

	"github.com/enrique7mc/MvcCms/internal/model"
)

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// FindByIDが期限切れセッションを返さないことの期待動作
func TestPostgresSessionRepo_FindByID_ExpiredSession_Concept(t *testing.T) {
	// FindByIDのWHERE句は expires_at > now() で期限切れを除外する
	session := &model.Session{
		ID:        "expired-session",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	if session.ExpiresAt.After(time.Now()) {
		t.Error("expected session to be expired")
	}
}
