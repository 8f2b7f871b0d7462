package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"traffic-analytics-service/internal/detector"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"DB_DSN": "postgres://localhost/traffic"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTP.Host != "0.0.0.0" || cfg.HTTP.Port != 7090 {
		t.Errorf("HTTP = %+v, want 0.0.0.0:7090", cfg.HTTP)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.DB.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.DB.QueryTimeout)
	}
	if cfg.Prediction.LookbackDays != 30 || cfg.Prediction.DefaultDaysAhead != 7 || cfg.Prediction.InsightsDays != 3 {
		t.Errorf("Prediction = %+v", cfg.Prediction)
	}
	if cfg.Detector.Kind != detector.KindDisabled {
		t.Errorf("Detector.Kind = %q, want disabled", cfg.Detector.Kind)
	}
	if cfg.Redis.ProgressTTL != 10*time.Minute {
		t.Errorf("ProgressTTL = %v, want 10m", cfg.Redis.ProgressTTL)
	}
	if cfg.MQTT.ClientID != "traffic-analytics" {
		t.Errorf("MQTT.ClientID = %q, want traffic-analytics", cfg.MQTT.ClientID)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"DB_DSN":                        "postgres://localhost/traffic",
		"APP_TIMEZONE":                  "Asia/Manila",
		"HTTP_PORT":                     9000,
		"PREDICTION_DEFAULT_DAYS_AHEAD": 3,
		"PREDICTION_MAX_DAYS_AHEAD":     14,
		"DETECTOR_KIND":                 "http",
		"DETECTOR_URL":                  "http://ml:8000",
		"DB_QUERY_TIMEOUT":              "2s",
		"MQTT_CLIENT_ID":                "traffic-analytics-2",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.HTTP.Port)
	}
	if cfg.Location.String() != "Asia/Manila" {
		t.Errorf("Location = %v", cfg.Location)
	}
	if cfg.Prediction.DefaultDaysAhead != 3 || cfg.Prediction.MaxDaysAhead != 14 {
		t.Errorf("Prediction = %+v", cfg.Prediction)
	}
	if cfg.Detector.Kind != detector.KindHTTP {
		t.Errorf("Detector.Kind = %q", cfg.Detector.Kind)
	}
	if cfg.DB.QueryTimeout != 2*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.DB.QueryTimeout)
	}
	if cfg.MQTT.ClientID != "traffic-analytics-2" {
		t.Errorf("MQTT.ClientID = %q", cfg.MQTT.ClientID)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{"missing dsn", map[string]any{}, "DB_DSN"},
		{"bad timezone", map[string]any{"DB_DSN": "x", "APP_TIMEZONE": "Mars/Olympus"}, "APP_TIMEZONE"},
		{"unknown detector", map[string]any{"DB_DSN": "x", "DETECTOR_KIND": "python"}, "DETECTOR_KIND"},
		{"http detector without url", map[string]any{"DB_DSN": "x", "DETECTOR_KIND": "http"}, "DETECTOR_URL"},
		{"default above max", map[string]any{"DB_DSN": "x", "PREDICTION_DEFAULT_DAYS_AHEAD": 10, "PREDICTION_MAX_DAYS_AHEAD": 5}, "exceeds"},
		{"negative horizon", map[string]any{"DB_DSN": "x", "PREDICTION_DEFAULT_DAYS_AHEAD": -1}, "positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.values))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
