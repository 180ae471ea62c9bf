package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Audit    AuditConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// SessionConfig controls the in-memory edit-session store and the
// medication reminder policy applied to new orders.
type SessionConfig struct {
	TTLMinutes          int  `mapstructure:"ttl_minutes"`
	RemindersEnabled    bool `mapstructure:"reminders_enabled"`
	ReminderOffsetHours int  `mapstructure:"reminder_offset_hours"`
}

func (c SessionConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c SessionConfig) ReminderOffset() time.Duration {
	if c.ReminderOffsetHours <= 0 {
		return 4 * time.Hour
	}
	return time.Duration(c.ReminderOffsetHours) * time.Hour
}

type AuditConfig struct {
	LocalCap int `mapstructure:"local_cap"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("session.ttl_minutes", 30)
	viper.SetDefault("session.reminders_enabled", true)
	viper.SetDefault("session.reminder_offset_hours", 4)
	viper.SetDefault("audit.local_cap", 1000)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
