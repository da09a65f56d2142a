package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilExporterIsNoOp(t *testing.T) {
	var e *Exporter
	e.ObserveFit("Naive", time.Millisecond, nil)
	e.ObserveFitFailure("Naive", "invalid_input")
	e.ObservePredict("Naive")
	e.ObserveCandidate("AutoARIMA", true)
	e.ObserveSelected("AutoARIMA", "aicc", 12.3)
	e.ObserveCVFold("MFLES", "0", time.Second, 0.5)
}

func TestNewExporterRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewExporter("forecastcore_test", reg)

	e.ObserveFit("Naive", 10*time.Millisecond, nil)
	e.ObserveCandidate("AutoETS", false)
	e.ObserveCandidate("AutoETS", true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family to be registered")
	}
}
