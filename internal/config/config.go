package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no explicit config path is supplied.
const DefaultPath = "configs/config.yaml"

type Config struct {
	API struct {
		BaseURL         string  `yaml:"base_url"`
		ProviderBaseURL string  `yaml:"provider_base_url"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	} `yaml:"api"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Session struct {
		Backend      string `yaml:"backend"` // file, sqlite or memory
		Path         string `yaml:"path"`
		Encrypt      bool   `yaml:"encrypt"`
		IdentityPath string `yaml:"identity_path"`
	} `yaml:"session"`

	OTP struct {
		LoginResendSeconds        int `yaml:"login_resend_seconds"`
		RegistrationResendSeconds int `yaml:"registration_resend_seconds"`
		BookingResendSeconds      int `yaml:"booking_resend_seconds"`
	} `yaml:"otp"`

	Booking struct {
		EnforceCapacity *bool `yaml:"enforce_capacity"`
	} `yaml:"booking"`

	Retry struct {
		MaxAttempts int     `yaml:"max_attempts"`
		DelayMillis int     `yaml:"delay_ms"`
		Multiplier  float64 `yaml:"multiplier"`
	} `yaml:"retry"`

	Telegram struct {
		BotToken      string  `yaml:"bot_token"`
		NotifyChatIDs []int64 `yaml:"notify_chat_ids"`
	} `yaml:"telegram"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config bytes. ${ENV_VAR} placeholders are expanded first.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "file"
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "data/session"
	}
	if cfg.Session.IdentityPath == "" {
		cfg.Session.IdentityPath = "data/session.key"
	}
	if cfg.Monitoring.PrometheusPort == 0 {
		cfg.Monitoring.PrometheusPort = 9090
	}

	return &cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

// LoginResend is the login OTP resend countdown.
func (c *Config) LoginResend() time.Duration {
	return seconds(c.OTP.LoginResendSeconds, 90)
}

// RegistrationResend is the hotel registration OTP resend countdown.
func (c *Config) RegistrationResend() time.Duration {
	return seconds(c.OTP.RegistrationResendSeconds, 120)
}

// BookingResend is the booking confirmation OTP resend countdown.
func (c *Config) BookingResend() time.Duration {
	return seconds(c.OTP.BookingResendSeconds, 60)
}

// EnforceCapacity reports whether guest count above room capacity blocks submission.
func (c *Config) EnforceCapacity() bool {
	if c.Booking.EnforceCapacity == nil {
		return true
	}
	return *c.Booking.EnforceCapacity
}

func (c *Config) RetryMaxAttempts() int {
	if c.Retry.MaxAttempts <= 0 {
		return 3
	}
	return c.Retry.MaxAttempts
}

func (c *Config) RetryDelay() time.Duration {
	if c.Retry.DelayMillis <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Retry.DelayMillis) * time.Millisecond
}

func (c *Config) LogPretty() bool {
	if c.Logging.Pretty == nil {
		return true
	}
	return *c.Logging.Pretty
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
