package config

import (
	"flag"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	StorageModePostgres = "postgres"
	StorageModeMemory   = "memory"
)

type HTTPServer struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type RedisCache struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type Spotify struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	APIBase      string `mapstructure:"api_base"`
	// Where the browser lands after the OAuth callback.
	FrontendURL string `mapstructure:"frontend_url"`
}

type Session struct {
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"`
}

type Playback struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollWorkers     int           `mapstructure:"poll_workers"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Storage struct {
	Mode string `mapstructure:"mode"`
}

type Config struct {
	HTTP     HTTPServer `mapstructure:"http"`
	Redis    RedisCache `mapstructure:"redis"`
	Postgres Postgres   `mapstructure:"db"`
	Spotify  Spotify    `mapstructure:"spotify"`
	Session  Session    `mapstructure:"session"`
	Playback Playback   `mapstructure:"playback"`
	Log      Log        `mapstructure:"log"`
	Storage  Storage    `mapstructure:"storage"`
}

const logtag = "config"

// Load reads an optional env file (-config flag or .env) and builds the config
// from environment variables on top of defaults.
// Keys map to env names by upper-casing and replacing dots: db.host -> DB_HOST.
func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatal().Str("module", logtag).Err(err).Msg("err loading env from file")
		}
		log.Info().Str("module", logtag).Str("path", *configPath).Msg("using env from file")
	} else {
		log.Info().Str("module", logtag).Msg("using env from .env")
		_ = godotenv.Load()
	}

	cfg, err := FromViper(viper.New())
	if err != nil {
		log.Fatal().Str("module", logtag).Err(err).Msg("failed to parse config")
	}

	log.Info().Str("module", logtag).
		Str("http_port", cfg.HTTP.Port).
		Str("storage", cfg.Storage.Mode).
		Str("db_host", cfg.Postgres.Host).
		Str("redis_host", cfg.Redis.Host).
		Dur("provider_timeout", cfg.Playback.ProviderTimeout).
		Msg("backend config")
	return cfg
}

// FromViper binds the environment into v and unmarshals it.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeMemory
		if cfg.Postgres.Host != "" {
			cfg.Storage.Mode = StorageModePostgres
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "localhost")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.mode", "release")

	v.SetDefault("redis.host", "redis")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")

	// Empty host means no Postgres: storage falls back to memory.
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "admin")
	v.SetDefault("db.password", "shared")
	v.SetDefault("db.name", "musicroom")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_uri", "http://localhost:8080/api/v1/spotify/redirect")
	v.SetDefault("spotify.api_base", "https://api.spotify.com/v1/me/player")
	v.SetDefault("spotify.frontend_url", "/")

	v.SetDefault("session.secret", "shared")
	v.SetDefault("session.max_age", 3600*24*7)

	v.SetDefault("playback.provider_timeout", "3s")
	v.SetDefault("playback.poll_interval", "1s")
	v.SetDefault("playback.poll_workers", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("storage.mode", "")
}
