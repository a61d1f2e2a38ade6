// Package formv1 FormService 的消息定义，使用 JSON 编码传输。
package formv1

// 表单类型
const (
	KindSignup = "signup"
	KindLogin  = "login"
)

// 提交状态
const (
	StateIdle       = "idle"
	StateSubmitting = "submitting"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
)

type OpenFormRequest struct {
	Kind string `json:"kind"`
}

type OpenFormResponse struct {
	FormId   string        `json:"form_id"`
	Snapshot *FormSnapshot `json:"snapshot"`
}

type ChangeFieldRequest struct {
	FormId string `json:"form_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

type SubmitFormRequest struct {
	FormId string `json:"form_id"`
}

type GetFormRequest struct {
	FormId string `json:"form_id"`
}

// FormResponse ChangeField / SubmitForm / GetForm 共用的响应
type FormResponse struct {
	Snapshot *FormSnapshot `json:"snapshot"`
}

type CloseFormRequest struct {
	FormId string `json:"form_id"`
}

type CloseFormResponse struct{}

type ScorePasswordRequest struct {
	Password string `json:"password"`
}

type ScorePasswordResponse struct {
	Score int32  `json:"score"`
	Label string `json:"label"`
}

// FormSnapshot 表单的只读视图。密码类字段的值不会回传，只通过 Filled 标记是否已填写。
type FormSnapshot struct {
	Kind          string            `json:"kind"`
	Fields        map[string]string `json:"fields"`
	Filled        []string          `json:"filled,omitempty"`
	Errors        map[string]string `json:"errors"`
	State         string            `json:"state"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Valid         bool              `json:"valid"`
	Strength      *PasswordStrength `json:"strength,omitempty"`
	Registration  *Registration     `json:"registration,omitempty"`
	Session       *Session          `json:"session,omitempty"`
}

type PasswordStrength struct {
	Score int32  `json:"score"`
	Label string `json:"label"`
}

type Registration struct {
	UserId  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Subject      string `json:"subject,omitempty"`
	// RFC 3339，令牌不含 exp 时为空
	ExpiresAt string `json:"expires_at,omitempty"`
}
