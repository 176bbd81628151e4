package config

import "testing"

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset uses default", "", 30},
		{"valid override", "45", 45},
		{"garbage falls back", "soon", 30},
		{"non-positive falls back", "-1", 30},
		{"zero falls back", "0", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_SWEEP_MINUTES", tt.value)
			}
			if got := getenvInt("TEST_SWEEP_MINUTES", 30); got != tt.want {
				t.Errorf("getenvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:           "8080",
		DatabaseDSN:    "host=localhost",
		JWTSecret:      "s3cret",
		Env:            "prod",
		CatalogBaseURL: "https://api.deezer.com",
	}
	if err := Validate(valid); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"default secret in prod", func(c *Config) { c.JWTSecret = "dev-secret-change-me" }},
		{"empty catalog url", func(c *Config) { c.CatalogBaseURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	// The default secret is tolerated in dev.
	cfg := valid
	cfg.Env = "dev"
	cfg.JWTSecret = "dev-secret-change-me"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(dev default secret) = %v", err)
	}
}
