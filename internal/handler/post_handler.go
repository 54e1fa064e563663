package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enrique7mc/MvcCms/internal/middleware"
	"github.com/enrique7mc/MvcCms/internal/model"
	"github.com/enrique7mc/MvcCms/internal/post"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// List はユーザーのロールに応じてスコープされた記事一覧を返す。
	List(ctx context.Context, user *model.User, search string) ([]*model.Post, error)
	// NewDraft は作成フォーム表示用の空の記事を返す。
	NewDraft(user *model.User) *model.Post
	// Create は新規記事を作成する。
	Create(ctx context.Context, user *model.User, in post.Input) (*model.Post, error)
	// GetForEdit は編集権限を検証した上で記事を取得する。
	GetForEdit(ctx context.Context, user *model.User, id string) (*model.Post, error)
	// Edit は記事を更新する。
	Edit(ctx context.Context, user *model.User, id string, in post.Input) (*model.Post, error)
	// GetForDelete は削除権限を検証した上で記事を取得する。
	GetForDelete(ctx context.Context, user *model.User, id string) (*model.Post, error)
	// Delete は記事を削除する。
	Delete(ctx context.Context, user *model.User, id string) error
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postRequest は記事の作成・編集リクエストのボディ。
type postRequest struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	Published *time.Time `json:"published"`
}

// postResponse は記事のAPIレスポンス。
type postResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Tags       []string   `json:"tags"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name,omitempty"`
	Created    time.Time  `json:"created"`
	Published  *time.Time `json:"published"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
// バリデーションエラー時はフィールド別メッセージと送信値を含め、
// クライアントがフォームを再表示できるようにする。
type apiErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Action    string            `json:"action"`
	Fields    map[string]string `json:"fields,omitempty"`
	Submitted *postRequest      `json:"submitted,omitempty"`
}

// List は記事一覧を返す。authorロールのみのユーザーには自分の記事だけが返る。
// GET /post?search=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	search := r.URL.Query().Get("search")

	posts, err := h.service.List(r.Context(), user, search)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostListResponse(posts))
}

// New は作成フォーム表示用の空の記事を返す。
// GET /post/create
func (h *PostHandler) New(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	draft := h.service.NewDraft(user)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(draft))
}

// Create は新規記事を作成する。
// POST /post/create
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), user, req.toInput())
	if err != nil {
		handlePostMutationError(w, err, req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(created))
}

// GetForEdit は編集フォーム表示用に既存記事を返す。
// GET /post/edit/{id}
func (h *PostHandler) GetForEdit(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	p, err := h.service.GetForEdit(r.Context(), user, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// Edit は記事を更新する。
// POST /post/edit/{id}
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Edit(r.Context(), user, id, req.toInput())
	if err != nil {
		handlePostMutationError(w, err, req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(updated))
}

// GetForDelete は削除確認用に既存記事を返す。
// GET /post/delete/{id}
func (h *PostHandler) GetForDelete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	p, err := h.service.GetForDelete(r.Context(), user, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(p))
}

// Delete は記事を削除する。
// POST /post/delete/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func (req *postRequest) toInput() post.Input {
	return post.Input{
		ID:        req.ID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
	}
}

// decodePostRequest はリクエストボディを解析する。解析失敗時は400を書き込みfalseを返す。
func decodePostRequest(w http.ResponseWriter, r *http.Request) (*postRequest, bool) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return nil, false
	}
	return &req, true
}

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func toPostResponse(p *model.Post) postResponse {
	resp := postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Tags:      p.Tags,
		AuthorID:  p.AuthorID,
		Created:   p.Created,
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

func toPostListResponse(posts []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

// writeUnauthorized は認証切れの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Fields:   apiErr.Fields,
	})
}

// handlePostMutationError は作成・編集のエラーを処理する。
// バリデーションエラーと重複エラーでは送信値をレスポンスに含め、
// クライアントがフォームを再表示できるようにする。
func handlePostMutationError(w http.ResponseWriter, err error, submitted *postRequest) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeValidation, model.ErrCodeDuplicatePostID:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(mapAPIErrorToHTTPStatus(apiErr))
			json.NewEncoder(w).Encode(apiErrorResponse{
				Code:      apiErr.Code,
				Message:   apiErr.Message,
				Category:  apiErr.Category,
				Action:    apiErr.Action,
				Fields:    apiErr.Fields,
				Submitted: submitted,
			})
			return
		}
	}
	handleServiceError(w, err)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case model.ErrCodeDuplicatePostID:
		return http.StatusConflict
	case model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodePostAccessDenied:
		return http.StatusUnauthorized
	case model.ErrCodeRoleRequired:
		return http.StatusForbidden
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidPage:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
