package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"traffic-analytics-service/internal/detector"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	QueryTimeout    time.Duration
}

type RedisConfig struct {
	URL         string
	ProgressTTL time.Duration
}

type PredictionConfig struct {
	LookbackDays     int
	DefaultDaysAhead int
	MaxDaysAhead     int
	InsightsDays     int
	InsightsCacheTTL time.Duration
}

type DetectorConfig struct {
	Kind    detector.Kind
	URL     string
	Timeout time.Duration
}

type MQTTConfig struct {
	URL      string
	Topic    string
	ClientID string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Config struct {
	Environment string
	Timezone    string
	Location    *time.Location
	HTTP        HTTPConfig
	DB          DBConfig
	Redis       RedisConfig
	Prediction  PredictionConfig
	Detector    DetectorConfig
	MQTT        MQTTConfig
	RateLimit   RateLimitConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Timezone:    v.GetString("APP_TIMEZONE"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			QueryTimeout:    v.GetDuration("DB_QUERY_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL:         v.GetString("REDIS_URL"),
			ProgressTTL: v.GetDuration("PROGRESS_TTL"),
		},
		Prediction: PredictionConfig{
			LookbackDays:     v.GetInt("PREDICTION_LOOKBACK_DAYS"),
			DefaultDaysAhead: v.GetInt("PREDICTION_DEFAULT_DAYS_AHEAD"),
			MaxDaysAhead:     v.GetInt("PREDICTION_MAX_DAYS_AHEAD"),
			InsightsDays:     v.GetInt("INSIGHTS_DAYS"),
			InsightsCacheTTL: v.GetDuration("INSIGHTS_CACHE_TTL"),
		},
		Detector: DetectorConfig{
			Kind:    detector.Kind(v.GetString("DETECTOR_KIND")),
			URL:     v.GetString("DETECTOR_URL"),
			Timeout: v.GetDuration("DETECTOR_TIMEOUT"),
		},
		MQTT: MQTTConfig{
			URL:      v.GetString("MQTT_URL"),
			Topic:    v.GetString("MQTT_TOPIC"),
			ClientID: v.GetString("MQTT_CLIENT_ID"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.DB.QueryTimeout <= 0 {
		cfg.DB.QueryTimeout = 5 * time.Second
	}
	if cfg.Redis.ProgressTTL <= 0 {
		cfg.Redis.ProgressTTL = 10 * time.Minute
	}
	if cfg.Prediction.LookbackDays <= 0 {
		cfg.Prediction.LookbackDays = 30
	}
	if cfg.Prediction.DefaultDaysAhead == 0 {
		cfg.Prediction.DefaultDaysAhead = 7
	}
	if cfg.Prediction.MaxDaysAhead == 0 {
		cfg.Prediction.MaxDaysAhead = 30
	}
	if cfg.Prediction.InsightsDays <= 0 {
		cfg.Prediction.InsightsDays = 3
	}
	if cfg.Prediction.InsightsCacheTTL <= 0 {
		cfg.Prediction.InsightsCacheTTL = 30 * time.Second
	}
	if cfg.Detector.Kind == "" {
		cfg.Detector.Kind = detector.KindDisabled
	}
	if cfg.Detector.Timeout <= 0 {
		cfg.Detector.Timeout = 60 * time.Second
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "trapick/analyses"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "traffic-analytics"
	}
	if cfg.RateLimit.RPS <= 0 {
		cfg.RateLimit.RPS = 1
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is invalid: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if !cfg.Detector.Kind.Valid() {
		return fmt.Errorf("DETECTOR_KIND %q is not supported", cfg.Detector.Kind)
	}
	if cfg.Detector.Kind == detector.KindHTTP && cfg.Detector.URL == "" {
		return fmt.Errorf("DETECTOR_URL is required when DETECTOR_KIND=%s", detector.KindHTTP)
	}
	if cfg.Prediction.DefaultDaysAhead < 1 || cfg.Prediction.MaxDaysAhead < 1 {
		return fmt.Errorf("prediction horizons must be positive")
	}
	if cfg.Prediction.DefaultDaysAhead > cfg.Prediction.MaxDaysAhead {
		return fmt.Errorf("PREDICTION_DEFAULT_DAYS_AHEAD (%d) exceeds PREDICTION_MAX_DAYS_AHEAD (%d)",
			cfg.Prediction.DefaultDaysAhead, cfg.Prediction.MaxDaysAhead)
	}
	return nil
}
