package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 管理API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 管理API全般のバーストサイズ
	MutationRate    rate.Limit    // 記事の作成・編集・削除のレート（req/sec）。30/60
	MutationBurst   int           // 記事更新系のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 管理API全般 120 req/min/user、記事更新系 30 req/min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		MutationRate:    rate.Limit(30.0 / 60.0), // 0.5 req/sec
		MutationBurst:   30,
		CleanupInterval: 5 * time.Minute,
	}
}

// userLimiter はユーザーごとのレートリミッターとアクセス時刻を保持する。
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はユーザーごとのレート制限を管理する。
// 管理API全般のレート制限と記事更新系のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*userLimiter

	mutationMu       sync.RWMutex
	mutationLimiters map[string]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:           config,
		generalLimiters:  make(map[string]*userLimiter),
		mutationLimiters: make(map[string]*userLimiter),
		stopCh:           make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は管理API全般のレート制限ミドルウェアを返す。
// リクエストコンテキストに認証済みユーザーが含まれている必要がある
// （SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := CurrentUserFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateGeneralLimiter(user.ID)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", user.ID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MutationMiddleware は記事の作成・編集・削除専用のレート制限ミドルウェアを返す。
// 管理API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) MutationMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := CurrentUserFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateMutationLimiter(user.ID)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.MutationRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", user.ID),
					slog.String("limit_type", "mutation"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されている全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// MutationLimiterCount は現在管理されている更新系リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) MutationLimiterCount() int {
	rl.mutationMu.RLock()
	defer rl.mutationMu.RUnlock()
	return len(rl.mutationLimiters)
}

// getOrCreateGeneralLimiter はユーザーの全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(userID string) *rate.Limiter {
	rl.generalMu.RLock()
	ul, exists := rl.generalLimiters[userID]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		ul.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return ul.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if ul, exists := rl.generalLimiters[userID]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[userID] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreateMutationLimiter はユーザーの更新系リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateMutationLimiter(userID string) *rate.Limiter {
	rl.mutationMu.RLock()
	ul, exists := rl.mutationLimiters[userID]
	rl.mutationMu.RUnlock()

	if exists {
		rl.mutationMu.Lock()
		ul.lastAccess = time.Now()
		rl.mutationMu.Unlock()
		return ul.limiter
	}

	rl.mutationMu.Lock()
	defer rl.mutationMu.Unlock()

	// ダブルチェック
	if ul, exists := rl.mutationLimiters[userID]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.config.MutationRate, rl.config.MutationBurst)
	rl.mutationLimiters[userID] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for userID, ul := range rl.generalLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.generalLimiters, userID)
		}
	}
	rl.generalMu.Unlock()

	rl.mutationMu.Lock()
	for userID, ul := range rl.mutationLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.mutationLimiters, userID)
		}
	}
	rl.mutationMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
