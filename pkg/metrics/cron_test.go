package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "shipment-tracking-sync"

	m.ObserveRun(job, 250*time.Millisecond, nil)
	m.ObserveRun(job, time.Second, errors.New("carrier timeout"))
	m.CycleSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for outcome, want := range map[string]float64{outcomeSuccess: 1, outcomeFailure: 1} {
		got, err := counterValue(mfs, "dairymart_cron_job_runs_total", map[string]string{"job": job, "outcome": outcome})
		if err != nil {
			t.Fatalf("%s: %v", outcome, err)
		}
		if got != want {
			t.Fatalf("%s: expected %v got %v", outcome, want, got)
		}
	}

	mf := findMetricFamily(mfs, "dairymart_cron_job_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected two duration samples, got %v", mf)
	}
	mf = findMetricFamily(mfs, "dairymart_cron_job_last_success_timestamp_seconds")
	if mf == nil || mf.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatalf("expected last success timestamp, got %v", mf)
	}
	mf = findMetricFamily(mfs, "dairymart_cron_cycles_skipped_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one skipped cycle, got %v", mf)
	}
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	m.CycleSkipped()
	NewCronJobMetrics(nil).ObserveRun("job", time.Second, errors.New("x"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	return counterValue(mfs, name, map[string]string{label: value})
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q has no series %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
