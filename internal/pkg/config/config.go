package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	confv1 "authform-go/internal/conf/v1"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// 配置缺省值
const (
	DefaultRequestTimeoutSeconds = 10
	DefaultRegisterPath          = "/users/register"
	DefaultLoginPath             = "/users/login"
	DefaultHealthPath            = "/"
	DefaultIdleTTLSeconds        = 30 * 60
	DefaultReapIntervalSeconds   = 60
)

var (
	// Module 提供 Fx 模块
	Module = fx.Module("config",
		fx.Provide(
			// 提供配置加载函数
			func() (*confv1.Bootstrap, error) {
				// 从环境变量获取配置路径，如果没有设置则使用默认路径
				configPath := getConfigPath()

				conf, err := Load(configPath)
				if err != nil {
					return nil, err
				}
				fmt.Printf("Configuration loaded successfully from: %s\n", configPath)
				return conf, nil
			},
		),
	)

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Load 从本地 YAML 文件读取配置并补齐缺省值
func Load(configPath string) (*confv1.Bootstrap, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 允许用环境变量覆盖，例如 AUTH_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	return decode(v.AllSettings())
}

// Parse 从内存中的 YAML 内容解析配置，主要给测试和 CLI 使用
func Parse(content string) (*confv1.Bootstrap, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v.AllSettings())
}

func decode(m map[string]any) (*confv1.Bootstrap, error) {
	localConf := &confv1.Bootstrap{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		WeaklyTypedInput: true,
		// 与 YAML 的 snake_case 键对齐
		TagName: "json",
		Result:  localConf,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(localConf)
	return localConf, nil
}

func applyDefaults(conf *confv1.Bootstrap) {
	if conf.Auth != nil {
		if conf.Auth.RequestTimeoutSeconds == 0 {
			conf.Auth.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
		}
		if conf.Auth.RegisterPath == "" {
			conf.Auth.RegisterPath = DefaultRegisterPath
		}
		if conf.Auth.LoginPath == "" {
			conf.Auth.LoginPath = DefaultLoginPath
		}
		if conf.Auth.HealthPath == "" {
			conf.Auth.HealthPath = DefaultHealthPath
		}
	}

	if conf.Form == nil {
		conf.Form = &confv1.Form{}
	}
	if conf.Form.IdleTTLSeconds == 0 {
		conf.Form.IdleTTLSeconds = DefaultIdleTTLSeconds
	}
	if conf.Form.ReapIntervalSeconds == 0 {
		conf.Form.ReapIntervalSeconds = DefaultReapIntervalSeconds
	}

	if conf.Log == nil {
		conf.Log = &confv1.Log{Level: "info"}
	}
}

// getConfigPath 从环境变量获取配置路径
func getConfigPath() string {
	// 优先使用环境变量 CONFIG_PATH
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// 在Docker容器中，配置文件位于/app/configs/config.yaml
	// 在开发环境中，配置文件位于configs/config.yaml
	if isRunningInContainer() {
		return "/app/configs/config.yaml"
	}

	return "configs/config.yaml"
}

// isRunningInContainer 检查是否在容器中运行
func isRunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if cgroup, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		if strings.Contains(string(cgroup), "docker") || strings.Contains(string(cgroup), "kubepods") {
			return true
		}
	}

	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" || os.Getenv("CONTAINER") != "" {
		return true
	}

	return false
}

// ValidateConfig 验证配置的完整性
func ValidateConfig(conf *confv1.Bootstrap) error {
	if conf == nil {
		return errors.New("configuration is nil")
	}

	if err := validate.Struct(conf); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
