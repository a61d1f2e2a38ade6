package model

import "fmt"

// Field 表单字段名
type Field string

// 注册与登录表单使用的字段
const (
	FieldUsername        Field = "username"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
)

// FormFields 字段名到当前输入值
type FormFields map[Field]string

// Clone 返回独立副本
func (f FormFields) Clone() FormFields {
	out := make(FormFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FieldErrors 字段名到错误提示；字段出现在这里当且仅当它当前的值未通过校验
type FieldErrors map[Field]string

// Clone 返回独立副本
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// SubmissionState 提交生命周期状态
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText 让状态以字符串形式出现在 JSON 中
func (s SubmissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SubmissionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "submitting":
		*s = StateSubmitting
	case "succeeded":
		*s = StateSucceeded
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown submission state %q", text)
	}
	return nil
}

// Strength 密码强度评分及分级
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// Snapshot 提供给渲染层的只读快照
type Snapshot struct {
	Schema        string          `json:"schema"`
	Fields        FormFields      `json:"fields"`
	Errors        FieldErrors     `json:"errors"`
	State         SubmissionState `json:"state"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Strength      *Strength       `json:"strength,omitempty"`
	Result        any             `json:"result,omitempty"`
}

// Valid 当前错误集合为空
func (s Snapshot) Valid() bool {
	return len(s.Errors) == 0
}
