package biz

import (
	"regexp"
	"strings"

	"authform-go/internal/biz/model"

	"github.com/go-playground/validator/v10"
)

// 字段校验提示
const (
	MsgUsernameTooShort = "Username must be at least 4 characters"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgPasswordWeak     = "Password must contain uppercase, lowercase, and number"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordRequired = "Password is required"
)

// 长度、字符类别和相等性交给 validator 标签，min 按字符计数
const (
	tagUsername  = "min=4"
	tagPassword  = "min=8"
	tagLower     = "containsany=abcdefghijklmnopqrstuvwxyz"
	tagUpper     = "containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tagDigit     = "containsany=0123456789"
	tagRequired  = "required"
	tagSameValue = "eqfield"
)

// 空白包括 \v 和 Unicode 空格分隔符（NBSP、全角空格等）以及 BOM
const emailPart = `[^\s\v\p{Z}\x{FEFF}@]+`

var (
	validate     = validator.New()
	emailPattern = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)
)

// satisfies 值是否满足 validator 标签
func satisfies(value, tag string) bool {
	return validate.Var(value, tag) == nil
}

func hasLower(value string) bool { return satisfies(value, tagLower) }
func hasUpper(value string) bool { return satisfies(value, tagUpper) }
func hasDigit(value string) bool { return satisfies(value, tagDigit) }

// Rule 校验单个字段，返回空字符串表示通过。
// fields 是校验时刻整张表单的值，用于跨字段规则。
type Rule func(value string, fields model.FormFields) string

func validateUsername(value string, _ model.FormFields) string {
	if !satisfies(strings.TrimSpace(value), tagUsername) {
		return MsgUsernameTooShort
	}
	return ""
}

func validateEmail(value string, _ model.FormFields) string {
	if !emailPattern.MatchString(value) {
		return MsgEmailInvalid
	}
	return ""
}

func validatePassword(value string, _ model.FormFields) string {
	if !satisfies(value, tagPassword) {
		return MsgPasswordTooShort
	}
	// 三个条件同时满足，与出现顺序无关
	if !hasLower(value) || !hasUpper(value) || !hasDigit(value) {
		return MsgPasswordWeak
	}
	return ""
}

func validateConfirmPassword(value string, fields model.FormFields) string {
	if validate.VarWithValue(value, fields[model.FieldPassword], tagSameValue) != nil {
		return MsgPasswordMismatch
	}
	return ""
}

func requirePassword(value string, _ model.FormFields) string {
	if !satisfies(value, tagRequired) {
		return MsgPasswordRequired
	}
	return ""
}

// ValidateSignupField 按注册表单规则校验单个字段
func ValidateSignupField(field model.Field, value string, fields model.FormFields) string {
	rule, ok := signupRules[field]
	if !ok {
		return ""
	}
	return rule(value, fields)
}

var signupRules = map[model.Field]Rule{
	model.FieldUsername:        validateUsername,
	model.FieldEmail:           validateEmail,
	model.FieldPassword:        validatePassword,
	model.FieldConfirmPassword: validateConfirmPassword,
}

var loginRules = map[model.Field]Rule{
	model.FieldEmail:    validateEmail,
	model.FieldPassword: requirePassword,
}
