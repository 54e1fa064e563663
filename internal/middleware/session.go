// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/enrique7mc/MvcCms/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("current_user")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーをロール付きでリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder, userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if session == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 3. ユーザーをロール付きで取得
			user, err := userFinder.FindByID(r.Context(), session.UserID)
			if err != nil {
				slog.Error("failed to find user",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if user == nil {
				// セッションは有効だがユーザーが削除済み
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 4. 認証済みユーザーをコンテキストに注入
			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireRoleMiddleware は認証済みユーザーが指定ロールのいずれかを
// 持つことを要求するミドルウェアを返す。セッションミドルウェアの内側で使う。
// ロールを持たない場合は403 Forbiddenを返す。
func NewRequireRoleMiddleware(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := CurrentUserFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("role check failed",
				slog.String("user_id", user.ID),
				slog.Any("required", roles),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

// CurrentUserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func CurrentUserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
