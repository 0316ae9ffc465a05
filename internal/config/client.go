package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig is what mcsctl needs to reach and authenticate to an agent.
type ClientConfig struct {
	AgentURL string        `mapstructure:"agent-url"`
	Hostname string        `mapstructure:"hostname"`
	Secret   string        `mapstructure:"secret"`
	Timeout  time.Duration `mapstructure:"timeout"`

	RedisAddr     string `mapstructure:"redis-addr"`
	RedisPassword string `mapstructure:"redis-password"`
	RedisDB       int    `mapstructure:"redis-db"`
}

// LoadClientConfig reads flags, MCSCTL_* environment and config file values
// already bound into v.
func LoadClientConfig(v *viper.Viper) (*ClientConfig, error) {
	// Every key needs a default so Unmarshal sees values that only live in
	// the environment.
	v.SetDefault("agent-url", "http://127.0.0.1:8000")
	v.SetDefault("hostname", "")
	v.SetDefault("secret", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("redis-addr", "")
	v.SetDefault("redis-password", "")
	v.SetDefault("redis-db", 0)

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Hostname == "" || cfg.Secret == "" {
		return nil, errors.New("hostname and secret are required (--hostname/--secret or MCSCTL_HOSTNAME/MCSCTL_SECRET)")
	}
	return &cfg, nil
}
