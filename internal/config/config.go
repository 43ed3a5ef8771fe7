package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Steam    SteamConfig    `mapstructure:"steam"`
	Optimize OptimizeConfig `mapstructure:"optimize"`
	Loadout  LoadoutConfig  `mapstructure:"loadout"`
	Request  RequestConfig  `mapstructure:"request"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // "local", "prod"
}

type SteamConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	Currency     int     `mapstructure:"currency"`
	Pages        int     `mapstructure:"pages"` // pages swept per sort order, 10 results each
	DialTimeoutS int     `mapstructure:"dial_timeout_s"`
	TimeoutS     int     `mapstructure:"timeout_s"`
	RPS          float64 `mapstructure:"rps"`
	Burst        int     `mapstructure:"burst"`
}

type OptimizeConfig struct {
	// FloorCents is the minimum price admitted into the knapsack candidate
	// set. Kept explicit so deployments can tune what counts as junk.
	FloorCents     int64 `mapstructure:"floor_cents"`
	MaxBudgetCents int64 `mapstructure:"max_budget_cents"`
}

type LoadoutConfig struct {
	FloorCents int64 `mapstructure:"floor_cents"`
	MaxOptions int   `mapstructure:"max_options"`
}

type RequestConfig struct {
	TimeoutS int `mapstructure:"timeout_s"`
}

// Load reads configuration from .env file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("steam.base_url", "https://steamcommunity.com")
	v.SetDefault("steam.currency", 1) // USD
	v.SetDefault("steam.pages", 3)
	v.SetDefault("steam.dial_timeout_s", 10)
	v.SetDefault("steam.timeout_s", 15)
	v.SetDefault("steam.rps", 8.0)
	v.SetDefault("steam.burst", 4)

	v.SetDefault("optimize.floor_cents", 100)
	v.SetDefault("optimize.max_budget_cents", 200000) // $2000; bounds the DP table

	v.SetDefault("loadout.floor_cents", 100)
	v.SetDefault("loadout.max_options", 6)

	v.SetDefault("request.timeout_s", 30)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "steam.base_url", "steam.currency", "steam.pages",
		"steam.dial_timeout_s", "steam.timeout_s", "steam.rps", "steam.burst")
	bindEnv(v, "optimize.floor_cents", "optimize.max_budget_cents")
	bindEnv(v, "loadout.floor_cents", "loadout.max_options")
	bindEnv(v, "request.timeout_s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if cfg.Steam.Pages <= 0 {
		return nil, fmt.Errorf("steam.pages must be positive")
	}
	if cfg.Optimize.FloorCents <= 0 {
		return nil, fmt.Errorf("optimize.floor_cents must be positive")
	}
	if cfg.Optimize.MaxBudgetCents <= 0 {
		return nil, fmt.Errorf("optimize.max_budget_cents must be positive")
	}
	if cfg.Loadout.MaxOptions <= 0 {
		return nil, fmt.Errorf("loadout.max_options must be positive")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
