package registry

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	confv1 "authform-go/internal/conf/v1"

	"github.com/hashicorp/consul/api"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServiceName 注册到 Consul 的默认服务名
type ServiceName string

// Module 提供 Fx 模块
var Module = fx.Module("registry",
	fx.Provide(NewConsulRegistry),
)

// ConsulRegistry 负责把 HTTP 服务注册到 Consul，未启用时为空操作
type ConsulRegistry struct {
	client    *api.Client
	serviceID string
	logger    *zap.Logger
}

func NewConsulRegistry(lc fx.Lifecycle, conf *confv1.Bootstrap, name ServiceName, logger *zap.Logger) (*ConsulRegistry, error) {
	r := &ConsulRegistry{logger: logger}
	if conf.Registry == nil || conf.Registry.Consul == nil || !conf.Registry.Consul.Enabled {
		logger.Info("Consul registry disabled")
		return r, nil
	}
	cc := conf.Registry.Consul

	apiConf := api.DefaultConfig()
	apiConf.Address = cc.Address
	client, err := api.NewClient(apiConf)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}
	r.client = client

	registration, err := buildRegistration(conf, string(name))
	if err != nil {
		return nil, err
	}
	r.serviceID = registration.ID

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Agent().ServiceRegister(registration); err != nil {
				return fmt.Errorf("register service to consul: %w", err)
			}
			logger.Info("Service registered to consul",
				zap.String("id", registration.ID),
				zap.String("address", registration.Address),
				zap.Int("port", registration.Port),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return r.Deregister()
		},
	})

	return r, nil
}

// Deregister 从 Consul 注销服务
func (r *ConsulRegistry) Deregister() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		r.logger.Error("Failed to deregister service", zap.String("id", r.serviceID), zap.Error(err))
		return err
	}
	r.logger.Info("Service deregistered from consul", zap.String("id", r.serviceID))
	return nil
}

func buildRegistration(conf *confv1.Bootstrap, defaultName string) (*api.AgentServiceRegistration, error) {
	cc := conf.Registry.Consul
	name := cc.ServiceName
	if name == "" {
		name = defaultName
	}

	host, portStr, err := net.SplitHostPort(conf.Server.HTTP.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse server addr %q: %w", conf.Server.HTTP.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse server port %q: %w", portStr, err)
	}
	if host == "" || host == "0.0.0.0" {
		if host, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
	}

	interval := time.Duration(cc.CheckIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", name, host, port),
		Name:    name,
		Tags:    cc.Tags,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s/healthz", net.JoinHostPort(host, portStr)),
			Interval:                       interval.String(),
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}, nil
}
