package biz

import (
	"context"

	"authform-go/internal/biz/model"
	"authform-go/internal/data"
)

type CheckUseCase struct {
	repo data.CheckRepo
}

func NewCheckUseCase(repo data.CheckRepo) (model.CheckUseCase, error) {
	return &CheckUseCase{
		repo: repo,
	}, nil
}

// Ready 就绪条件：认证服务可达
func (c CheckUseCase) Ready(ctx context.Context, req model.HealthCheckReq) (model.HealthCheckReply, error) {
	reply, err := c.repo.Ready(ctx, req)
	if err != nil {
		return reply, err
	}
	return model.HealthCheckReply{
		Status:  reply.Status,
		Details: reply.Details,
	}, nil
}
