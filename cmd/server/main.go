package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"

	"authform-go/internal/biz"
	confv1 "authform-go/internal/conf/v1"
	"authform-go/internal/data"
	"authform-go/internal/pkg/config"
	logger "authform-go/internal/pkg/log"
	"authform-go/internal/pkg/otel"
	"authform-go/internal/pkg/registry"
	"authform-go/internal/server"
	"authform-go/internal/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var serviceName = registry.ServiceName("authform-go")

func main() {
	flag.Parse()

	fxApp := NewApp()

	// 启动应用
	if err := fxApp.Start(context.Background()); err != nil {
		log.Printf("Failed to start app: %v\n", err)
		os.Exit(1)
	}

	// 等待中断信号
	<-fxApp.Done()

	// 优雅关闭
	if err := fxApp.Stop(context.Background()); err != nil {
		log.Printf("Failed to stop app gracefully: %v\n", err)
		os.Exit(1)
	}
}

// NewApp 创建并配置 FX 应用
func NewApp() *fx.App {
	return fx.New(
		// 提供基础模块
		config.Module,
		logger.Module,
		registry.Module,

		// 注入业务模块（按依赖顺序）
		data.Module,
		biz.Module,
		service.Module,
		server.MiddlewareModule, // 中间件模块需要在服务器模块之前
		server.Module,

		// 传递全局变量
		fx.Supply(serviceName),

		// 配置验证和初始化
		fx.Invoke(
			// 验证配置完整性
			func(conf *confv1.Bootstrap) error {
				return config.ValidateConfig(conf)
			},

			// 初始化并启动核心应用逻辑
			func(lc fx.Lifecycle, conf *confv1.Bootstrap, logger *zap.Logger, srv *http.Server) error {
				// 初始化 Otel
				otelShutdown, err := otel.SetupOTelSDK(context.Background(), conf.Trace, logger)
				if err != nil {
					return err
				}

				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
						go func() {
							if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
								logger.Fatal("Failed to start HTTP server", zap.Error(err))
							}
						}()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						logger.Info("Stopping HTTP server...")
						// 先停止接收请求，再刷新遥测数据
						if err := srv.Shutdown(ctx); err != nil {
							logger.Error("Failed to shutdown server gracefully", zap.Error(err))
						}
						// 关闭 Otel（如果已启用）
						if otelShutdown != nil {
							if err := otelShutdown(ctx); err != nil {
								logger.Error("Failed to shutdown OTel", zap.Error(err))
							}
						}
						return nil
					},
				})
				return nil
			},

			// 注册应用到注册中心，HTTP 服务启动之后再注册
			func(_ *registry.ConsulRegistry) {},
		),
	)
}
