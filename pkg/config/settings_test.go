package config

import "testing"

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if err := s.Validate(); err != nil {
		t.Fatalf("DefaultSettings() should validate: %v", err)
	}
	if s.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", s.MaxRetries)
	}
	if s.TimeoutMillis != 10000 || s.SearchTimeoutMillis != 15000 {
		t.Errorf("timeouts = %d/%d", s.TimeoutMillis, s.SearchTimeoutMillis)
	}
}

func TestLoadSettings_FromEnv(t *testing.T) {
	t.Setenv("MINICRM_BASE_URL", "http://localhost:5678/webhook")
	t.Setenv("MINICRM_SEARCH_PATH", "/search")
	t.Setenv("MINICRM_MAX_RETRIES", "1")
	t.Setenv("MINICRM_TIMEOUT_MS", "2500")
	t.Setenv("MINICRM_LOG_PRETTY", "true")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}

	if s.BaseURL != "http://localhost:5678/webhook" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.SearchPath != "/search" {
		t.Errorf("SearchPath = %q", s.SearchPath)
	}
	if s.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d", s.MaxRetries)
	}
	if s.TimeoutMillis != 2500 {
		t.Errorf("TimeoutMillis = %d", s.TimeoutMillis)
	}
	if !s.LogPretty {
		t.Error("LogPretty should be true")
	}
	// Untouched values keep their defaults.
	if s.GatewayPath != "/gateway_entities" {
		t.Errorf("GatewayPath = %q", s.GatewayPath)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative retries", "MINICRM_MAX_RETRIES", "-1"},
		{"zero timeout", "MINICRM_TIMEOUT_MS", "0"},
		{"not a number", "MINICRM_TIMEOUT_MS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadSettings(); err == nil {
				t.Errorf("LoadSettings() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}
