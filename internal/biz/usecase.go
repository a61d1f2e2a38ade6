package biz

import (
	"context"
	"fmt"
	"sort"
	"time"

	"authform-go/internal/biz/model"
	conf "authform-go/internal/conf/v1"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FormUseCase 按名称创建表单实例，所有实例共享同一个认证服务
type FormUseCase struct {
	schemas    map[string]*Schema
	timeout    time.Duration
	logger     *zap.Logger
	submission metric.Int64Counter
}

func NewFormUseCase(auth model.Authenticator, cfg *conf.Bootstrap, logger *zap.Logger) (*FormUseCase, error) {
	var timeout time.Duration
	if cfg.Auth != nil {
		timeout = time.Duration(cfg.Auth.RequestTimeoutSeconds) * time.Second
	}

	meter := otel.GetMeterProvider().Meter("authform-go")
	counter, err := meter.Int64Counter(
		"form.submission.count",
		metric.WithDescription("表单提交次数，按表单类型和结果区分"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission counter: %w", err)
	}

	return &FormUseCase{
		schemas: map[string]*Schema{
			SchemaSignup: SignupSchema(auth),
			SchemaLogin:  LoginSchema(auth),
		},
		timeout:    timeout,
		logger:     logger,
		submission: counter,
	}, nil
}

// Open 创建一个新的空表单
func (uc *FormUseCase) Open(name string) (*Form, error) {
	schema, ok := uc.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return NewForm(schema,
		WithTimeout(uc.timeout),
		WithLogger(uc.logger),
		WithOutcomeHook(uc.recordOutcome),
	), nil
}

// Schemas 支持的表单名称
func (uc *FormUseCase) Schemas() []string {
	names := make([]string, 0, len(uc.schemas))
	for name := range uc.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (uc *FormUseCase) recordOutcome(schema, outcome string) {
	uc.submission.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("form.schema", schema),
		attribute.String("form.outcome", outcome),
	))
}
