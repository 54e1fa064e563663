// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーションエラーの場合はフィールドごとのメッセージをFieldsに保持する。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, post, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // フィールド単位のバリデーションメッセージ（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDuplicatePostID    = "DUPLICATE_POST_ID"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodePostAccessDenied   = "POST_ACCESS_DENIED"
	ErrCodeRoleRequired       = "ROLE_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidPage        = "INVALID_PAGE"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
// 送信値はハンドラー側でレスポンスに含め、フォームの再表示に使う。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各フィールドのエラーメッセージを確認して修正してください。",
		Fields:   fields,
	}
}

// NewDuplicatePostIDError は記事ID重複エラーを生成する。
func NewDuplicatePostIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicatePostID,
		Message:  fmt.Sprintf("ID %q の記事は既に存在します。", id),
		Category: "post",
		Action:   "別のIDを指定するか、タイトルを変更してください。",
	}
}

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", id),
		Category: "post",
		Action:   "記事IDを確認してください。",
	}
}

// NewPostAccessDeniedError は著者不一致による記事アクセス拒否エラーを生成する。
func NewPostAccessDeniedError(id string) *APIError {
	return &APIError{
		Code:     ErrCodePostAccessDenied,
		Message:  fmt.Sprintf("この記事を操作する権限がありません: %s", id),
		Category: "auth",
		Action:   "自分が author の記事のみ編集できます。",
	}
}

// NewRoleRequiredError はロール不足によるアクセス拒否エラーを生成する。
func NewRoleRequiredError(roles ...string) *APIError {
	return &APIError{
		Code:     ErrCodeRoleRequired,
		Message:  fmt.Sprintf("この操作には次のいずれかのロールが必要です: %v", roles),
		Category: "auth",
		Action:   "管理者にロールの付与を依頼してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名不明とパスワード不一致を区別せず、同一のエラーを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidPageError は無効なページ指定エラーを生成する。
func NewInvalidPageError(page, size int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("無効なページ指定です: page=%d, page_size=%d", page, size),
		Category: "validation",
		Action:   "pageは1以上、page_sizeは1以上100以下で指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
