package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const instrumentationName = "authform-go/server"

// Metrics HTTP 与 RPC 共用的监控指标
type Metrics struct {
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCounter    metric.Int64Counter
}

// NewMetrics 从全局 MeterProvider 创建指标
func NewMetrics() (*Metrics, error) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("HTTP 请求总数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP 请求耗时"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("HTTP 错误总数"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	return &Metrics{
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		errorCounter:    errorCounter,
	}, nil
}

// MonitoringMiddleware 监控中间件，存活检查不记录日志
func MonitoringMiddleware(m *Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			tracer := otel.GetTracerProvider().Tracer(instrumentationName)
			ctx, span := tracer.Start(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.String("http.host", r.Host),
			)

			// 包装 ResponseWriter 来捕获状态码
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			elapsed := time.Since(startTime)
			attributes := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.Int("http.status_code", ww.statusCode),
			)
			m.requestCounter.Add(ctx, 1, attributes)
			m.requestDuration.Record(ctx, float64(elapsed.Milliseconds()), attributes)
			span.SetAttributes(attribute.Int("http.status_code", ww.statusCode))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("duration", elapsed),
			}
			if ww.statusCode >= http.StatusBadRequest {
				m.errorCounter.Add(ctx, 1, attributes)
				span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
				logger.Warn("HTTP request error", append(fields, zap.String("user_agent", r.UserAgent()))...)
				return
			}
			span.SetStatus(codes.Ok, "OK")
			if r.URL.Path != HealthPath {
				logger.Debug("HTTP request completed", fields...)
			}
		})
	}
}

// ConnectMonitoringInterceptor Connect 专用的监控拦截器。
// 表单字段可能包含密码，日志中只记录过程名和错误码。
func ConnectMonitoringInterceptor(m *Metrics, logger *zap.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			startTime := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			elapsed := time.Since(startTime)
			attributes := metric.WithAttributes(
				attribute.String("rpc.system", "connect"),
				attribute.String("rpc.procedure", procedure),
			)
			m.requestCounter.Add(ctx, 1, attributes)
			m.requestDuration.Record(ctx, float64(elapsed.Milliseconds()), attributes)

			if err != nil {
				m.errorCounter.Add(ctx, 1, attributes)
				logger.Warn("RPC request failed",
					zap.String("procedure", procedure),
					zap.String("code", connect.CodeOf(err).String()),
					zap.Duration("duration", elapsed),
					zap.Error(err),
				)
				return resp, err
			}
			logger.Info("RPC request completed",
				zap.String("procedure", procedure),
				zap.Duration("duration", elapsed),
			)
			return resp, nil
		}
	}
}

// responseWriter 包装 http.ResponseWriter 来捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Flush 流式响应需要
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// MiddlewareModule 提供 Fx 模块
var MiddlewareModule = fx.Module("server.middleware",
	fx.Provide(
		NewMetrics,
		func(m *Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
			return MonitoringMiddleware(m, logger)
		},
		ConnectMonitoringInterceptor,
	),
)
