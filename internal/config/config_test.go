package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d, want 10MiB", cfg.MaxUploadBytes)
	}
	if cfg.PageCap != 50 {
		t.Fatalf("PageCap = %d, want 50", cfg.PageCap)
	}
	if cfg.SpeechChunkChars != 200 {
		t.Fatalf("SpeechChunkChars = %d, want 200", cfg.SpeechChunkChars)
	}
	if cfg.SettleDelay != 300*time.Millisecond {
		t.Fatalf("SettleDelay = %v, want 300ms", cfg.SettleDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SUMMARY_TIMEOUT", "5s")
	t.Setenv("PDF_PAGE_CAP", "not-a-number")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("APIPort = %q, want 9999", cfg.APIPort)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if cfg.SummaryTimeout != 5*time.Second {
		t.Fatalf("SummaryTimeout = %v, want 5s", cfg.SummaryTimeout)
	}
	if cfg.PageCap != 50 {
		t.Fatalf("PageCap = %d, want fallback 50 on malformed value", cfg.PageCap)
	}
}
