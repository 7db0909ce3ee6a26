package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithOrderNo(context.Background(), "ORD-100")
	ctx = logg.WithActor(ctx, "maria")
	logg.Info(ctx, "yard.status.updated")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if line["order_no"] != "ORD-100" {
		t.Fatalf("missing order_no field: %v", line)
	}
	if line["actor"] != "maria" {
		t.Fatalf("missing actor field: %v", line)
	}
	if line["service"] != "test" {
		t.Fatalf("missing service field: %v", line)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty level should default to info")
	}
	if ParseLevel("garbage") != zerolog.InfoLevel {
		t.Fatal("unknown level should default to info")
	}
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug should parse")
	}
}
