package data

import (
	"context"
	"net/http"

	"authform-go/internal/biz/model"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type authRepo struct {
	data *Data
	l    *zap.Logger
}

// NewAuthRepo 通过 HTTP 访问外部认证服务
func NewAuthRepo(data *Data, logger *zap.Logger) model.Authenticator {
	return &authRepo{
		data: data,
		l:    logger,
	}
}

func (r *authRepo) Register(ctx context.Context, req model.RegisterRequest) (*model.Registration, error) {
	var resp registerResponse
	if err := r.data.doJSON(ctx, http.MethodPost, r.data.conf.RegisterPath, req, &resp); err != nil {
		r.l.Warn("Register request failed", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	return &model.Registration{
		UserID:  resp.UserID,
		Message: resp.Message,
	}, nil
}

func (r *authRepo) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	var resp tokenResponse
	if err := r.data.doJSON(ctx, http.MethodPost, r.data.conf.LoginPath, req, &resp); err != nil {
		r.l.Warn("Login request failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	session := &model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
	}
	r.readClaims(session)
	return session, nil
}

// readClaims 不校验签名，只读取 sub 和 exp 供展示
func (r *authRepo) readClaims(session *model.Session) {
	if session.AccessToken == "" {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(session.AccessToken, claims); err != nil {
		r.l.Debug("Access token is not a readable JWT", zap.Error(err))
		return
	}
	if sub, err := claims.GetSubject(); err == nil {
		session.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
}
