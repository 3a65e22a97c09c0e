package main

import (
	"fmt"
	"strings"
	"time"

	"ton_mining_miniapp/internal/cache"
	"ton_mining_miniapp/internal/middleware"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/pkg/ton"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Redis    cache.Config      `yaml:"redis"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	Links        service.LinkConfig `yaml:"links"`

	Wallet    WalletConfig               `yaml:"wallet"`
	RateLimit middleware.RateLimitConfig `yaml:"rateLimit"`
	Giveaways GiveawaysConfig            `yaml:"giveaways"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	DebugMode        bool   `yaml:"debugMode"`
	AppURL           string `yaml:"appURL"`
}

type WalletConfig struct {
	TreasuryAddress string        `yaml:"treasuryAddress"`
	Limits          ton.Limits    `yaml:"limits"`
	RequestTTL      time.Duration `yaml:"requestTTL"`
}

type GiveawaysConfig struct {
	AdvanceInterval time.Duration `yaml:"advanceInterval"`
}

func LoadConfig() (*Config, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("wallet.limits.min", ton.DefaultLimits.Min)
	viper.SetDefault("wallet.limits.max", ton.DefaultLimits.Max)
	viper.SetDefault("wallet.limits.largeTransfer", ton.DefaultLimits.LargeTransfer)
	viper.SetDefault("giveaways.advanceInterval", time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ton.ValidateAddress(cfg.Wallet.TreasuryAddress); err != nil {
		return nil, fmt.Errorf("wallet.treasuryAddress: %w", err)
	}

	return &cfg, nil
}
