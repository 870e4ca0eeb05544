package infra

import (
	"reflect"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "SERVICE_ROLE_KEY", "REPLICATE_API_TOKEN", "PORT",
		"STORAGE_BASE_URL", "PUBLIC_BASE_URL", "CORS_ALLOWED_ORIGINS", "GENERATION_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "1919")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBaseURL != "http://localhost:1919/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
	if cfg.PublicBaseURL != "http://localhost:1919" {
		t.Fatalf("PublicBaseURL mismatch: got %q", cfg.PublicBaseURL)
	}
	if cfg.GenerationMaxRetries != 3 {
		t.Fatalf("GenerationMaxRetries = %d", cfg.GenerationMaxRetries)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigHonorsExplicitValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("GENERATION_MAX_RETRIES", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got := cfg.WebhookURL("c1"); got != "https://api.example.com/v1/webhooks/replicate?courseId=c1" {
		t.Fatalf("WebhookURL = %q", got)
	}
	if got := cfg.WebhookURL("a&b #1"); got != "https://api.example.com/v1/webhooks/replicate?courseId=a%26b+%231" {
		t.Fatalf("WebhookURL escaped = %q", got)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.GenerationMaxRetries != 5 {
		t.Fatalf("GenerationMaxRetries = %d", cfg.GenerationMaxRetries)
	}
}

func TestMissingRequired(t *testing.T) {
	cfg := &Config{}
	want := []string{"DATABASE_URL", "SERVICE_ROLE_KEY", "REPLICATE_API_TOKEN"}
	if got := cfg.MissingRequired(false); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingRequired = %#v", got)
	}
	if got := cfg.MissingRequired(true); !reflect.DeepEqual(got, want[:2]) {
		t.Fatalf("MissingRequired with stored token = %#v", got)
	}
	cfg = &Config{DatabaseURL: "postgres://x", ServiceRoleKey: "k", ReplicateAPIToken: "r8"}
	if got := cfg.MissingRequired(false); len(got) != 0 {
		t.Fatalf("MissingRequired = %#v", got)
	}
}
