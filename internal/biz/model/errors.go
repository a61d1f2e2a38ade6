package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSubmissionInFlight 同一表单已有提交在进行中
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrFormCompleted 表单已提交成功，不再接受事件
	ErrFormCompleted = errors.New("form already submitted successfully")
	// ErrFormClosed 表单已关闭
	ErrFormClosed = errors.New("form is closed")
	// ErrUnknownField 字段不属于该表单
	ErrUnknownField = errors.New("unknown form field")
	// ErrSubmissionTimeout 认证服务在限定时间内没有响应
	ErrSubmissionTimeout = errors.New("authentication request timed out")
)

// ValidationError 提交前的校验失败，携带完整的字段错误集合
type ValidationError struct {
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// SubmissionError 认证服务调用失败，Reason 用于表单级提示
type SubmissionError struct {
	Reason  string
	Timeout bool
	Err     error
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Reason
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// AuthError 认证服务返回的业务错误
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("auth service responded with HTTP %d", e.Status)
	}
	return e.Detail
}
