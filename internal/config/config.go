package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API      APIConfig
	Gin      GinConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Discord  DiscordConfig
	Storage  StorageConfig
	Session  SessionConfig
	Raffle   RaffleConfig
}

type APIConfig struct {
	Environment        string
	Host               string
	Port               string
	AllowedCORSDomains []string
	BaseURL            string
}

type GinConfig struct {
	Mode string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	URL      string
}

// DSN returns URL when set, otherwise a keyword/value connection string.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DiscordConfig struct {
	Token   string
	AppID   string
	GuildID string
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type StorageConfig struct {
	Backend string
}

type SessionConfig struct {
	Backend string
}

type RaffleConfig struct {
	SweepInterval             time.Duration
	ReplyTimeout              time.Duration
	SessionTTL                time.Duration
	MaxQuantityPerReservation int
	Timezone                  string
	CurrencySymbol            string
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (c RaffleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("raffle.sweepinterval", time.Minute)
	v.SetDefault("raffle.replytimeout", 2*time.Minute)
	v.SetDefault("raffle.sessionttl", 30*time.Minute)
	v.SetDefault("raffle.maxquantityperreservation", 100)
	v.SetDefault("raffle.timezone", "America/Sao_Paulo")
	v.SetDefault("raffle.currencysymbol", "R$")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Flat environment names used by hosting platforms.
	_ = v.BindEnv("discord.token", "DISCORD_TOKEN")
	_ = v.BindEnv("discord.appid", "DISCORD_APP_ID")
	_ = v.BindEnv("discord.guildid", "DISCORD_GUILD_ID")
	_ = v.BindEnv("postgres.url", "DATABASE_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("storage.backend", "STORAGE_BACKEND")
	_ = v.BindEnv("session.backend", "SESSION_BACKEND")
	_ = v.BindEnv("api.port", "PORT")

	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	return conf, nil
}

func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch loads the file at path and calls onChange with the freshly decoded config each time
// the file is written.
func Watch(path string, onChange func(*AppConfig)) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}
	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		updated, err := decode(v)
		if err != nil {
			return
		}
		onChange(updated)
	})
	v.WatchConfig()

	return conf, nil
}
