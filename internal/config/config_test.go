package config

import (
	"reflect"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"parses integer", "42", 42},
		{"default on empty", "", 7},
		{"default on garbage", "not-a-number", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_VAR", tt.envValue)

			got := getEnvAsInt("TEST_INT_VAR", 7)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     []string
	}{
		{"splits on commas", "lead_scoring,session_processing", []string{"lead_scoring", "session_processing"}},
		{"trims whitespace", " lead_scoring , client_health ", []string{"lead_scoring", "client_health"}},
		{"drops empty entries", "lead_scoring,,", []string{"lead_scoring"}},
		{"nil when unset", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_LIST_VAR", tt.envValue)
			}

			got := getEnvAsList("TEST_LIST_VAR")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("getEnvAsList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("API_KEY", "test-api-key")
	t.Setenv("AIRTABLE_API_KEY", "pat-test")
	t.Setenv("AIRTABLE_BASE_ID", "appTest")
	t.Setenv("ENABLED_AUTOMATIONS", "lead_scoring,client_health")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.APIKey != "test-api-key" {
		t.Errorf("Load() APIKey = %v, want test-api-key", cfg.APIKey)
	}
	if cfg.Port != "8080" {
		t.Errorf("Load() Port = %v, want 8080 default", cfg.Port)
	}
	if cfg.AirtableAPIKey != "pat-test" || cfg.AirtableBaseID != "appTest" {
		t.Errorf("Load() Airtable config = %v/%v, want pat-test/appTest", cfg.AirtableAPIKey, cfg.AirtableBaseID)
	}
	if want := []string{"lead_scoring", "client_health"}; !reflect.DeepEqual(cfg.EnabledAutomations, want) {
		t.Errorf("Load() EnabledAutomations = %v, want %v", cfg.EnabledAutomations, want)
	}
	if cfg.MaxRequestBodyBytes != 1<<20 {
		t.Errorf("Load() MaxRequestBodyBytes = %v, want default 1MiB", cfg.MaxRequestBodyBytes)
	}
	if cfg.OpenAIRateLimit != 2 {
		t.Errorf("Load() OpenAIRateLimit = %v, want default 2", cfg.OpenAIRateLimit)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error when API_KEY unset")
	}
}

func TestLoadRejectsNegativeBodyLimit(t *testing.T) {
	t.Setenv("API_KEY", "test-api-key")
	t.Setenv("MAX_REQUEST_BODY_BYTES", "-1")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for negative MAX_REQUEST_BODY_BYTES")
	}
}

func TestLoadRejectsNonPositiveOpenAIRateLimit(t *testing.T) {
	t.Setenv("API_KEY", "test-api-key")
	t.Setenv("OPENAI_RATE_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for OPENAI_RATE_LIMIT <= 0")
	}
}
