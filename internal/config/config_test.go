package config

import "testing"

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("ENCODE_CONCURRENCY", "")
	t.Setenv("ANALYSIS_TIMEOUT_SECONDS", "")
	t.Setenv("RATE_LIMIT_PER_SECOND", "")
	t.Setenv("MINIO_PUBLIC_READ", "")

	cfg := Load()
	if cfg.NATSSubject != "cases.analyze" {
		t.Fatalf("expected default subject cases.analyze, got %q", cfg.NATSSubject)
	}
	if cfg.EncodeConcurrency != 4 {
		t.Fatalf("expected default encode concurrency 4, got %d", cfg.EncodeConcurrency)
	}
	if cfg.AnalysisTimeoutSec != 300 {
		t.Fatalf("expected default analysis timeout 300, got %d", cfg.AnalysisTimeoutSec)
	}
	if cfg.RateLimitPerSecond != 10 {
		t.Fatalf("expected default rate limit 10, got %v", cfg.RateLimitPerSecond)
	}
	if cfg.MinioPublicRead {
		t.Fatalf("expected private bucket by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "cases.analyze.staging")
	t.Setenv("ENCODE_CONCURRENCY", "8")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("MINIO_PUBLIC_READ", "true")

	cfg := Load()
	if cfg.NATSSubject != "cases.analyze.staging" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
	if cfg.EncodeConcurrency != 8 {
		t.Fatalf("expected encode concurrency 8, got %d", cfg.EncodeConcurrency)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.RateLimitPerSecond)
	}
	if !cfg.MinioPublicRead {
		t.Fatalf("expected public bucket override")
	}
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	t.Setenv("ENCODE_CONCURRENCY", "many")
	t.Setenv("RATE_LIMIT_PER_SECOND", "fast")

	cfg := Load()
	if cfg.EncodeConcurrency != 4 {
		t.Fatalf("expected fallback encode concurrency 4, got %d", cfg.EncodeConcurrency)
	}
	if cfg.RateLimitPerSecond != 10 {
		t.Fatalf("expected fallback rate limit 10, got %v", cfg.RateLimitPerSecond)
	}
}
