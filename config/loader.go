package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml (from ./configs or the working directory) with
// environment overrides. A .env file is honored when present so local runs
// don't need exported variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APPLYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("bot.cooldown_seconds", 300)
	v.SetDefault("questions.count", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("redis.db", 0)
}

// overrideFromEnv covers secrets that are usually injected as plain
// environment variables rather than written into config.yaml.
func overrideFromEnv(cfg *Config) {
	if token := os.Getenv("APPLYFLOW_BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && cfg.Database.URL == "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" && cfg.Redis.Address == "" {
		cfg.Redis.Address = addr
	}
}
