package biz

import (
	"regexp"

	"authform-go/internal/biz/model"
)

// 强度分级
const (
	StrengthWeak   = "Weak"
	StrengthMedium = "Medium"
	StrengthStrong = "Strong"
)

var symbolPattern = regexp.MustCompile(`[^A-Za-z0-9]`)

// ScorePassword 统计满足的条件数：长度、小写、大写、数字、其他字符，结果在 [0,5]
func ScorePassword(password string) int {
	score := 0
	if satisfies(password, tagPassword) {
		score++
	}
	if hasLower(password) {
		score++
	}
	if hasUpper(password) {
		score++
	}
	if hasDigit(password) {
		score++
	}
	if symbolPattern.MatchString(password) {
		score++
	}
	return score
}

// ClassifyStrength 0–1 Weak，2–3 Medium，4–5 Strong
func ClassifyStrength(score int) string {
	switch {
	case score >= 4:
		return StrengthStrong
	case score >= 2:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// PasswordStrength 每次调用都重新计算
func PasswordStrength(password string) model.Strength {
	score := ScorePassword(password)
	return model.Strength{Score: score, Label: ClassifyStrength(score)}
}
