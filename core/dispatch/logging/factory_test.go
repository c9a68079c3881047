package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldops/dispatchd/core/factory"
	"github.com/fieldops/dispatchd/core/model"
)

func TestNewStoreBackends(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		cfg  factory.ModuleConfig
		want string
	}{
		{
			name: "jsonl",
			cfg: factory.ModuleConfig{Type: "jsonl",
				Conf: map[string]any{"path": filepath.Join(dir, "plain.log")}},
			want: "*logging.JSONLStore",
		},
		{
			name: "rotating",
			cfg: factory.ModuleConfig{Type: "rotating",
				Conf: map[string]any{"path": filepath.Join(dir, "rotating.log"), "max_size_mb": 1}},
			want: "*logging.RotatingJSONLStore",
		},
		{
			name: "sqlite",
			cfg: factory.ModuleConfig{Type: "sqlite",
				Conf: map[string]any{"path": filepath.Join(dir, "decisions.db")}},
			want: "*logging.SQLiteStore",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewStore(tc.cfg)
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			defer func() { _ = store.Close() }()

			rec := LogRecord{
				Timestamp:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
				DispatchID: "d-1",
				JobID:      "job-1",
				Priority:   model.PriorityNormal,
				PoolSize:   3,
			}
			if err := store.Append(context.Background(), rec); err != nil {
				t.Fatalf("Append: %v", err)
			}
			got, err := store.Query(context.Background(), LogQuery{JobID: "job-1"})
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != 1 || got[0].DispatchID != "d-1" {
				t.Fatalf("unexpected query result: %+v", got)
			}
		})
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	if _, err := NewStore(factory.ModuleConfig{Type: "bolt"}); err == nil {
		t.Fatal("expected error for unknown log store type")
	}
}
