package tracing

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider error = %v", err)
	}
	if p.Tracer("test") == nil {
		t.Error("disabled provider should still hand out a tracer")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown error = %v", err)
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRate:  1.0,
		ServiceName: "rufusd-test",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider error = %v", err)
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown error = %v", err)
		}
	}()

	_, span := p.Tracer("test").Start(context.Background(), "test-span")
	span.End()
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:  true,
		Exporter: "carrier-pigeon",
	}, testLogger())
	if err == nil {
		t.Error("expected error for unknown exporter")
	}
}
