package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio   float64
		wantErr bool
	}{
		{0, false},
		{0.25, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}
	for _, tt := range tests {
		err := TracingConfig{SampleRatio: tt.ratio}.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("ratio %v: err = %v, wantErr %v", tt.ratio, err, tt.wantErr)
		}
	}
}

func TestStartTracing_Disabled(t *testing.T) {
	t.Parallel()

	tr, err := StartTracing(context.Background(), TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("StartTracing: %v", err)
	}
	if err := tr.Start(); err != nil {
		t.Errorf("Start: %v", err)
	}
	if err := tr.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestStartTracing_InstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tr, err := StartTracing(context.Background(), TracingConfig{Endpoint: "127.0.0.1:4318", Insecure: true, SampleRatio: 0.5}, "test")
	if err != nil {
		t.Fatalf("StartTracing: %v", err)
	}
	if otel.GetTracerProvider() == prev {
		t.Error("global tracer provider was not replaced")
	}
	if err := tr.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
