package app

import (
	"testing"

	"github.com/fieldops/dispatchd/config"
	"github.com/fieldops/dispatchd/core/factory"
)

func TestLogStoreConfig(t *testing.T) {
	cfg := logStoreConfig(config.LoggingConfig{Backend: "jsonl", Path: "d.log"})
	if cfg.Type != "jsonl" || cfg.Conf["path"] != "d.log" {
		t.Fatalf("unexpected mapping: %+v", cfg)
	}

	cfg = logStoreConfig(config.LoggingConfig{Backend: "jsonl", Path: "d.log", MaxSizeMB: 10, MaxBackups: 3})
	if cfg.Type != "rotating" {
		t.Fatalf("size limit should select the rotating store, got %q", cfg.Type)
	}
	if cfg.Conf["max_size_mb"] != 10 || cfg.Conf["max_backups"] != 3 {
		t.Fatalf("rotation settings not forwarded: %+v", cfg.Conf)
	}

	cfg = logStoreConfig(config.LoggingConfig{Backend: "sqlite", Path: "d.db", MaxSizeMB: 10})
	if cfg.Type != "sqlite" {
		t.Fatalf("size limit must not rewrite non-jsonl backends, got %q", cfg.Type)
	}
}

func TestPromAddr(t *testing.T) {
	if addr := promAddr(nil); addr != "" {
		t.Fatalf("expected empty addr without sinks, got %q", addr)
	}
	sinks := []factory.ModuleConfig{
		{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086"}},
	}
	if addr := promAddr(sinks); addr != "" {
		t.Fatalf("expected empty addr without prometheus sink, got %q", addr)
	}
	sinks = append(sinks, factory.ModuleConfig{Type: "prometheus"})
	if addr := promAddr(sinks); addr != ":2112" {
		t.Fatalf("expected default scrape addr, got %q", addr)
	}
	sinks[1].Conf = map[string]any{"prometheus_port": ":9105"}
	if addr := promAddr(sinks); addr != ":9105" {
		t.Fatalf("expected configured scrape addr, got %q", addr)
	}
}
