// Package auth はパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/enrique7mc/MvcCms/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// MetricsRecorder はログイン試行のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil許容。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		metrics:     metrics,
	}
}

// Login はユーザー名とパスワードを検証し、セッションを発行する。
// ユーザー名不明とパスワード不一致は区別せず、どちらもInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, name, password string) (*model.Session, error) {
	hash, err := s.userRepo.PasswordHashByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if hash == "" {
		// ユーザーが存在しない場合もハッシュ比較と同程度のコストをかけ、
		// タイミングでユーザーの有無が判別できないようにする
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.recordFailure(name)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.recordFailure(name)
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordFailure(name)
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("name", user.Name),
	)

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーをロール付きで取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

func (s *Service) recordFailure(name string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
	slog.Warn("login failed", slog.String("name", name))
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// dummyHash は "placeholder" のbcryptハッシュ。存在しないユーザーへの
// ログイン試行でも比較コストを揃えるためだけに使う。
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
