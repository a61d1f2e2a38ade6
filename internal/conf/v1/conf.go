package v1

// Bootstrap 应用的完整配置
type Bootstrap struct {
	Server   *Server   `json:"server" validate:"required"`
	Auth     *Auth     `json:"auth" validate:"required"`
	Form     *Form     `json:"form"`
	Trace    *Trace    `json:"trace"`
	Log      *Log      `json:"log"`
	Registry *Registry `json:"registry"`
}

type Server struct {
	HTTP *HTTP `json:"http" validate:"required"`
}

type HTTP struct {
	Addr                string   `json:"addr" validate:"required"`
	ReadTimeoutSeconds  int64    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int64    `json:"write_timeout_seconds"`
	IdleTimeoutSeconds  int64    `json:"idle_timeout_seconds"`
	AllowedOrigins      []string `json:"allowed_origins"`
}

// Auth 认证服务（外部协作方）的访问配置
type Auth struct {
	BaseURL               string `json:"base_url" validate:"required,url"`
	RequestTimeoutSeconds int64  `json:"request_timeout_seconds" validate:"gte=0"`
	RegisterPath          string `json:"register_path"`
	LoginPath             string `json:"login_path"`
	HealthPath            string `json:"health_path"`
}

// Form 表单实例的生命周期配置
type Form struct {
	IdleTTLSeconds      int64 `json:"idle_ttl_seconds" validate:"gte=0"`
	ReapIntervalSeconds int64 `json:"reap_interval_seconds" validate:"gte=0"`
}

type Trace struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `json:"service_name"`
	Insecure    bool   `json:"insecure"`
}

type Log struct {
	Level       string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `json:"development"`
}

type Registry struct {
	Consul *Consul `json:"consul"`
}

type Consul struct {
	Enabled              bool     `json:"enabled"`
	Address              string   `json:"address" validate:"required_if=Enabled true"`
	ServiceName          string   `json:"service_name"`
	Tags                 []string `json:"tags"`
	CheckIntervalSeconds int64    `json:"check_interval_seconds"`
}
