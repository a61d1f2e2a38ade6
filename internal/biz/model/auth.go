package model

import (
	"context"
	"time"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration 注册成功后认证服务返回的信息
type Registration struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

// Session 登录成功后的令牌
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Authenticator 外部认证服务
type Authenticator interface {
	Register(ctx context.Context, req RegisterRequest) (*Registration, error)
	Login(ctx context.Context, req LoginRequest) (*Session, error)
}
