package data

import (
	"context"
	"net/http"
	"time"

	"authform-go/internal/biz/model"

	"connectrpc.com/connect"
	"go.uber.org/zap"
)

const readyTimeout = 3 * time.Second

type checkRepo struct {
	data *Data
	l    *zap.Logger
}

type CheckRepo interface {
	Ready(context.Context, model.HealthCheckReq) (model.HealthCheckReply, error)
}

func NewCheckRepo(data *Data, l *zap.Logger) CheckRepo {
	return &checkRepo{
		data: data,
		l:    l,
	}
}

func (c checkRepo) Ready(ctx context.Context, _ model.HealthCheckReq) (model.HealthCheckReply, error) {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var health struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.data.doJSON(ctx, http.MethodGet, c.data.conf.HealthPath, nil, &health); err != nil {
		c.l.Warn("Auth service not ready", zap.Error(err))
		return model.HealthCheckReply{
			Status: "Unhealthy",
			Details: map[string]string{
				"Components": "Auth",
				"Message":    err.Error(),
			},
		}, connect.NewError(connect.CodeUnavailable, err)
	}
	return model.HealthCheckReply{
		Status: "Ready",
		Details: map[string]string{
			"Auth": health.Status,
		},
	}, nil
}
