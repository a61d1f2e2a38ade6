package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"authform-go/internal/biz/model"
	conf "authform-go/internal/conf/v1"
	"authform-go/internal/pkg/codec"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module 导出给 FX 的 Provider
var Module = fx.Module("data",
	fx.Provide(
		NewData,
		NewAuthRepo,
		NewCheckRepo,
	),
)

// 认证服务响应体的读取上限
const maxResponseBytes = 1 << 20

// Data 持有访问认证服务所需的客户端
type Data struct {
	client    *http.Client
	transport *http.Transport
	baseURL   *url.URL
	conf      *conf.Auth
}

// NewData 是 Data 的 fx 构造函数
func NewData(lc fx.Lifecycle, cfg *conf.Bootstrap, logger *zap.Logger) (*Data, error) {
	d, err := New(cfg.Auth)
	if err != nil {
		return nil, err
	}

	logger.Info("Auth service client configured", zap.String("base_url", d.baseURL.String()))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing auth service connections...")
			d.transport.CloseIdleConnections()
			return nil
		},
	})

	return d, nil
}

// New 创建 Data，不依赖 fx
func New(c *conf.Auth) (*Data, error) {
	if c == nil || c.BaseURL == "" {
		return nil, errors.New("auth base_url is required")
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth base_url: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Data{
		// 不设置 Client.Timeout，超时由调用方的 context 决定
		client:    &http.Client{Transport: transport},
		transport: transport,
		baseURL:   base,
		conf:      c,
	}, nil
}

func (d *Data) endpoint(path string) string {
	return d.baseURL.JoinPath(path).String()
}

// doJSON 发送 JSON 请求并解码响应；4xx/5xx 转为 *model.AuthError，不做重试
func (d *Data) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, span := otel.Tracer("authform-go/data").Start(ctx, "auth "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	var body io.Reader
	if in != nil {
		payload, err := codec.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// 自动注入 W3C Trace Context 头
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", model.ErrSubmissionTimeout, err)
		}
		return fmt.Errorf("auth service unavailable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", model.ErrSubmissionTimeout, err)
		}
		return fmt.Errorf("read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		authErr := &model.AuthError{Status: resp.StatusCode, Detail: parseDetail(raw)}
		span.SetStatus(codes.Error, authErr.Error())
		return authErr
	}

	if out != nil && len(raw) > 0 {
		if err := codec.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	span.SetStatus(codes.Ok, "OK")
	return nil
}

// parseDetail 读取 {"detail": "..."} 或校验失败时的 {"detail": [{"msg": "..."}]}
func parseDetail(raw []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := codec.Unmarshal(raw, &payload); err != nil {
		return ""
	}

	switch detail := payload.Detail.(type) {
	case string:
		return detail
	case []any:
		msgs := make([]string, 0, len(detail))
		for _, item := range detail {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
