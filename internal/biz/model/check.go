package model

import "context"

type CheckUseCase interface {
	Ready(ctx context.Context, req HealthCheckReq) (HealthCheckReply, error)
}
type (
	HealthCheckReq   struct{}
	HealthCheckReply struct {
		Status  string            `json:"status"`
		Details map[string]string `json:"details,omitempty"`
	}
)
