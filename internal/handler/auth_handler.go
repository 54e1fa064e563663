// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/enrique7mc/MvcCms/internal/model"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, name, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はパスワード認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login はユーザー名とパスワードでログインし、セッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.Name == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	session, err := h.service.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "INTERNAL_ERROR",
			Message:  "内部エラーが発生しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// セッションCookieの取得
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッションをDBから削除
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報をロール付きで返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to get current user", slog.String("error", err.Error()))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":    user.ID,
		"name":  user.Name,
		"roles": roles,
	})
}
