package server

import (
	"context"
	"net/http"
	"time"

	"authform-go/api/check/v1/checkv1connect"
	"authform-go/api/form/v1/formv1connect"
	conf "authform-go/internal/conf/v1"
	"authform-go/internal/pkg/codec"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"connectrpc.com/otelconnect"
	"github.com/rs/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HealthPath 存活检查路径，供注册中心探测
const HealthPath = "/healthz"

// 未配置时的 HTTP 超时
const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

var Module = fx.Module("server",
	fx.Provide(
		NewHTTPServer,
	),
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *conf.Bootstrap,
	formv1Service formv1connect.FormServiceHandler,
	checkv1Service checkv1connect.CheckServiceHandler,
	logger *zap.Logger,
	monitoringMiddleware func(http.Handler) http.Handler,
	connectInterceptor connect.UnaryInterceptorFunc,
) *http.Server {
	// 1. 创建 OTel Connect 拦截器实例
	otelInterceptor, err := otelconnect.NewInterceptor(
		otelconnect.WithoutServerPeerAttributes(),
	)
	if err != nil {
		logger.Fatal("failed to create otel interceptor", zap.Error(err))
	}

	// 2. 将 OTel 拦截器和监控拦截器加入到 Connect 拦截器列表中
	interceptors := connect.WithInterceptors(otelInterceptor, connectInterceptor)

	// 3. 将拦截器传递给 Service Handler
	formv1connectPath, formv1connectHandler := formv1connect.NewFormServiceHandler(
		formv1Service,
		interceptors,
	)
	checkv1connectPath, checkv1connectHandler := checkv1connect.NewCheckServiceHandler(
		checkv1Service,
		interceptors,
	)

	mux := http.NewServeMux()
	mux.Handle(formv1connectPath, formv1connectHandler)
	mux.Handle(checkv1connectPath, checkv1connectHandler)
	mux.HandleFunc(HealthPath, healthz)

	httpConf := cfg.Server.HTTP

	// CORS 配置，渲染层通常运行在浏览器中
	origins := httpConf.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   connectcors.AllowedMethods(),
		AllowedHeaders:   connectcors.AllowedHeaders(),
		ExposedHeaders:   connectcors.ExposedHeaders(),
		MaxAge:           7200,
		AllowCredentials: false,
	})

	// 创建处理器链：监控中间件 -> CORS -> HTTP/2
	handlerChain := monitoringMiddleware(corsHandler.Handler(mux))

	server := &http.Server{
		Addr:         httpConf.Addr,
		Handler:      h2c.NewHandler(handlerChain, &http2.Server{}),
		ReadTimeout:  seconds(httpConf.ReadTimeoutSeconds, defaultReadTimeout),
		WriteTimeout: seconds(httpConf.WriteTimeoutSeconds, defaultWriteTimeout),
		IdleTimeout:  seconds(httpConf.IdleTimeoutSeconds, defaultIdleTimeout),
	}

	// 注册生命周期钩子
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("HTTP server shutting down...")
			return server.Shutdown(ctx)
		},
	})

	return server
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	body, _ := codec.Marshal(map[string]string{"status": "OK"})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func seconds(n int64, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
