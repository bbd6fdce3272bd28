package config

import (
	"fmt"
	"time"
)

// Config is the full bot configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type BotConfig struct {
	Token           string `mapstructure:"token"`
	GuildID         string `mapstructure:"guild_id"`
	StaffChannelID  string `mapstructure:"staff_channel_id"`
	ReviewerRoleID  string `mapstructure:"reviewer_role_id"`
	CooldownSeconds int    `mapstructure:"cooldown_seconds"`
}

// Cooldown returns the conversation-start throttle.
func (b BotConfig) Cooldown() time.Duration {
	return time.Duration(b.CooldownSeconds) * time.Second
}

type QuestionsConfig struct {
	Count int      `mapstructure:"count"`
	Items []string `mapstructure:"items"`
}

// List returns exactly Count ordered question texts, padding with a numbered
// placeholder when fewer are configured.
func (q QuestionsConfig) List() []string {
	count := q.Count
	if count <= 0 {
		count = len(q.Items)
	}
	questions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if i < len(q.Items) && q.Items[i] != "" {
			questions = append(questions, q.Items[i])
			continue
		}
		questions = append(questions, fmt.Sprintf("Question %d?", i+1))
	}
	return questions
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

func validate(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("config: bot.token is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("config: database.url is required")
	}
	if cfg.Bot.CooldownSeconds < 0 {
		return fmt.Errorf("config: bot.cooldown_seconds must not be negative")
	}
	return nil
}
