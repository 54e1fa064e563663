package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/enrique7mc/MvcCms/internal/post"
)

// PublicPostServiceInterface は公開側ハンドラーが必要とするサービスインターフェース。
type PublicPostServiceInterface interface {
	// ListPublished は公開済み記事をpublished降順で返す。
	ListPublished(ctx context.Context) ([]*model.Post, error)
	// PageOfPublished は公開済み記事の1始まりページ窓を返す。
	PageOfPublished(ctx context.Context, page, size int) (*post.PublishedPage, error)
	// ListByTag は指定タグを持つ記事を返す。
	ListByTag(ctx context.Context, tag string) ([]*model.Post, error)
}

// PublicHandler は閲覧者向けの公開済み記事読み取りAPIのハンドラー。
// 認証不要で、本文の代わりに抜粋を返す。
type PublicHandler struct {
	service         PublicPostServiceInterface
	defaultPageSize int
	maxPageSize     int
}

// 一覧表示の抜粋の最大文字数。
const excerptMaxRunes = 200

// NewPublicHandler はPublicHandlerを生成する。
func NewPublicHandler(service PublicPostServiceInterface, defaultPageSize, maxPageSize int) *PublicHandler {
	return &PublicHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// publicPostResponse は公開側の記事レスポンス。本文は抜粋のみを返す。
type publicPostResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Excerpt    string     `json:"excerpt"`
	Tags       []string   `json:"tags"`
	AuthorName string     `json:"author_name,omitempty"`
	Published  *time.Time `json:"published"`
}

// publishedPageResponse はページングされた公開記事一覧のレスポンス。
type publishedPageResponse struct {
	Posts      []publicPostResponse `json:"posts"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
}

// ListPublished は公開済み記事の全件一覧を返す。
// pageまたはpage_sizeクエリが指定された場合はページングされた結果を返す。
// GET /api/published
func (h *PublicHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("page") != "" || q.Get("page_size") != "" {
		h.PageOfPublished(w, r)
		return
	}

	posts, err := h.service.ListPublished(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPublicPostListResponse(posts))
}

// PageOfPublished は公開済み記事のページを返す。
// GET /api/published/page?page=1&page_size=10
func (h *PublicHandler) PageOfPublished(w http.ResponseWriter, r *http.Request) {
	page := parseIntQuery(r, "page", 1)
	size := parseIntQuery(r, "page_size", h.defaultPageSize)
	if size > h.maxPageSize {
		size = h.maxPageSize
	}

	result, err := h.service.PageOfPublished(r.Context(), page, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(publishedPageResponse{
		Posts:      toPublicPostListResponse(result.Posts),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// ListByTag は指定タグの公開記事一覧を返す。
// GET /api/published/tag/{tag}
func (h *PublicHandler) ListByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	posts, err := h.service.ListByTag(r.Context(), tag)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPublicPostListResponse(posts))
}

// --- ヘルパー関数 ---

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func toPublicPostResponse(p *model.Post) publicPostResponse {
	resp := publicPostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Excerpt:   post.Excerpt(p.Content, excerptMaxRunes),
		Tags:      p.Tags,
		Published: p.Published,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if p.Author != nil {
		resp.AuthorName = p.Author.Name
	}
	return resp
}

func toPublicPostListResponse(posts []*model.Post) []publicPostResponse {
	out := make([]publicPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPublicPostResponse(p))
	}
	return out
}
