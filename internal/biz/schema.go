package biz

import (
	"context"
	"errors"
	"strings"

	"authform-go/internal/biz/model"
)

// 表单类型
const (
	SchemaSignup = "signup"
	SchemaLogin  = "login"
)

// ErrUnknownSchema 没有对应名称的表单
var ErrUnknownSchema = errors.New("unknown form schema")

// SubmitFunc 校验通过后调用外部协作方，返回成功结果
type SubmitFunc func(ctx context.Context, fields model.FormFields) (any, error)

// Schema 描述一种表单：字段、规则、跨字段依赖和提交动作
type Schema struct {
	Name   string
	Fields []model.Field
	Rules  map[model.Field]Rule
	// Dependents[a] 中的字段在 a 变化时需要重新校验
	Dependents   map[model.Field][]model.Field
	ShowStrength bool
	Submit       SubmitFunc
}

// Has 字段是否属于该表单
func (s *Schema) Has(field model.Field) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Validate 校验单个字段，不会 panic，没有规则的字段总是通过
func (s *Schema) Validate(field model.Field, fields model.FormFields) string {
	rule, ok := s.Rules[field]
	if !ok || rule == nil {
		return ""
	}
	return rule(fields[field], fields)
}

// ValidateAll 基于当前值重新生成完整的错误集合，不复用任何旧结果
func (s *Schema) ValidateAll(fields model.FormFields) model.FieldErrors {
	errs := make(model.FieldErrors)
	for _, field := range s.Fields {
		if msg := s.Validate(field, fields); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// SignupSchema 注册表单
func SignupSchema(auth model.Authenticator) *Schema {
	return &Schema{
		Name: SchemaSignup,
		Fields: []model.Field{
			model.FieldUsername,
			model.FieldEmail,
			model.FieldPassword,
			model.FieldConfirmPassword,
		},
		Rules: signupRules,
		Dependents: map[model.Field][]model.Field{
			model.FieldPassword: {model.FieldConfirmPassword},
		},
		ShowStrength: true,
		Submit: func(ctx context.Context, fields model.FormFields) (any, error) {
			return auth.Register(ctx, model.RegisterRequest{
				Username: strings.TrimSpace(fields[model.FieldUsername]),
				Email:    fields[model.FieldEmail],
				Password: fields[model.FieldPassword],
			})
		},
	}
}

// LoginSchema 登录表单
func LoginSchema(auth model.Authenticator) *Schema {
	return &Schema{
		Name:   SchemaLogin,
		Fields: []model.Field{model.FieldEmail, model.FieldPassword},
		Rules:  loginRules,
		Submit: func(ctx context.Context, fields model.FormFields) (any, error) {
			return auth.Login(ctx, model.LoginRequest{
				Email:    fields[model.FieldEmail],
				Password: fields[model.FieldPassword],
			})
		},
	}
}
