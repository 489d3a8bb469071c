package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("SPYGLASS_TEST_STR", "value")
	if got := GetEnv("SPYGLASS_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := GetEnv("SPYGLASS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SPYGLASS_TEST_DUR", "45s")
	if got := GetEnvDuration("SPYGLASS_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Fatalf("expected 45s, got %v", got)
	}

	// Bare numbers are seconds
	t.Setenv("SPYGLASS_TEST_DUR", "21600")
	if got := GetEnvDuration("SPYGLASS_TEST_DUR", time.Minute); got != 6*time.Hour {
		t.Fatalf("expected 6h for bare seconds, got %v", got)
	}

	t.Setenv("SPYGLASS_TEST_DUR", "garbage")
	if got := GetEnvDuration("SPYGLASS_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("SPYGLASS_TEST_SLICE", "wildberries, ozon ,,google_trends")
	got := GetEnvSlice("SPYGLASS_TEST_SLICE", nil)
	want := []string{"wildberries", "ozon", "google_trends"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := LoadConfig()
	if cfg.Port != "18090" {
		t.Fatalf("unexpected default port %q", cfg.Port)
	}
	if cfg.SearchTimeout != 30*time.Second {
		t.Fatalf("unexpected default search timeout %v", cfg.SearchTimeout)
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Fatalf("unexpected default cache ttl %v", cfg.CacheTTL)
	}
	if len(cfg.Sources) != 4 {
		t.Fatalf("expected 4 default sources, got %v", cfg.Sources)
	}
}

func TestSourceURLOverride(t *testing.T) {
	cfg := Config{WildberriesURL: "http://localhost:9999/wb"}
	if got := cfg.SourceURL("wildberries"); got != "http://localhost:9999/wb" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := cfg.SourceURL("ozon"); got != "" {
		t.Fatalf("expected empty for unset source, got %q", got)
	}
	if got := cfg.SourceURL("unknown"); got != "" {
		t.Fatalf("expected empty for unknown source, got %q", got)
	}
}
