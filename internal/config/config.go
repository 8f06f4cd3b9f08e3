package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Gemini struct {
		APIKey         string `yaml:"api_key"`
		ModelName      string `yaml:"model_name"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gemini"`

	Database struct {
		Path string `yaml:"path"` // SQLite path
	} `yaml:"database"`

	Catalog struct {
		Path string `yaml:"path"` // camera catalog JSON
	} `yaml:"catalog"`

	Images struct {
		Source string `yaml:"source"` // "http" or "dir"
		Dir    string `yaml:"dir"`    // frame directory for "dir" source
	} `yaml:"images"`

	Collection struct {
		IntervalMinutes int  `yaml:"interval_minutes"`
		AutoStart       bool `yaml:"auto_start"`
		PacingMs        int  `yaml:"pacing_ms"` // delay between views within a pass
	} `yaml:"collection"`

	Limits struct {
		DailyMaxRequests   int     `yaml:"daily_max_requests"`
		MonthlyMaxRequests int     `yaml:"monthly_max_requests"`
		CostPerRequest     float64 `yaml:"cost_per_request"`
		MonthlyBudget      float64 `yaml:"monthly_budget"`
		EmergencyShutoff   float64 `yaml:"emergency_shutoff"` // fraction of budget
	} `yaml:"limits"`

	Thresholds struct {
		HistoryMinRisk   int `yaml:"history_min_risk"`
		BroadcastMinRisk int `yaml:"broadcast_min_risk"`
	} `yaml:"thresholds"`

	Broadcast struct {
		RadiusMeters float64 `yaml:"radius_meters"`
		TTLSeconds   int     `yaml:"ttl_seconds"`
	} `yaml:"broadcast"`

	VRSU struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"vrsu"`

	NATS struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"nats"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8002"
	}

	if config.Gemini.ModelName == "" {
		config.Gemini.ModelName = "gemini-2.0-flash-exp"
	}

	if config.Gemini.TimeoutSeconds == 0 {
		config.Gemini.TimeoutSeconds = 60
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/detections.db"
	}

	if config.Catalog.Path == "" {
		config.Catalog.Path = "./configs/cameras.json"
	}

	if config.Images.Source == "" {
		config.Images.Source = "http"
	}

	if config.Collection.IntervalMinutes == 0 {
		config.Collection.IntervalMinutes = 30
	}

	if config.Collection.PacingMs == 0 {
		config.Collection.PacingMs = 500
	}

	if config.Limits.DailyMaxRequests == 0 {
		config.Limits.DailyMaxRequests = 50
	}

	if config.Limits.MonthlyMaxRequests == 0 {
		config.Limits.MonthlyMaxRequests = 400
	}

	if config.Limits.CostPerRequest == 0 {
		config.Limits.CostPerRequest = 0.000075
	}

	if config.Limits.MonthlyBudget == 0 {
		config.Limits.MonthlyBudget = 3.00
	}

	if config.Limits.EmergencyShutoff == 0 {
		config.Limits.EmergencyShutoff = 0.90
	}

	if config.Thresholds.HistoryMinRisk == 0 {
		config.Thresholds.HistoryMinRisk = 1
	}

	if config.Thresholds.BroadcastMinRisk == 0 {
		config.Thresholds.BroadcastMinRisk = 5
	}

	if config.Broadcast.RadiusMeters == 0 {
		config.Broadcast.RadiusMeters = 1000
	}

	if config.Broadcast.TTLSeconds == 0 {
		config.Broadcast.TTLSeconds = 3600
	}

	if config.NATS.Port == 0 {
		config.NATS.Port = 4222
	}

	// Expand environment variables in secrets
	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)

	return config, nil
}
