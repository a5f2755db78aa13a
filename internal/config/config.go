package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`

	GracePeriod  time.Duration `mapstructure:"grace_period"`
	HistoryLimit int           `mapstructure:"history_limit"`

	BansPath    string `mapstructure:"bans_path"`
	TokensPath  string `mapstructure:"tokens_path"`
	TokenSecret string `mapstructure:"token_secret"`

	AvatarTimeout time.Duration `mapstructure:"avatar_timeout"`

	MsgRateLimit    int           `mapstructure:"msg_rate_limit"`
	MsgRateInterval time.Duration `mapstructure:"msg_rate_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5158)
	v.SetDefault("secret", "bloxcord-dev-secret")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "25s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("grace_period", "5s")
	v.SetDefault("history_limit", 100)
	v.SetDefault("bans_path", "bans.json")
	v.SetDefault("tokens_path", "tokens.json")
	v.SetDefault("token_secret", "bloxcord-token-secret")
	v.SetDefault("avatar_timeout", "2s")
	v.SetDefault("msg_rate_limit", 10)
	v.SetDefault("msg_rate_interval", "5s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
