package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for i := range families {
		if families[i].GetName() == name {
			return families[i]
		}
	}
	return nil
}

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.IncRateLimitRequests("/recommendations", "user")
	m.IncRateLimitBlocked("/recommendations", "user")
	m.IncRateLimitRedisErrors()
	m.ObserveHTTPRequest("GET", "/venues", "200", 0.012, 0, 128)

	for _, name := range []string{
		MetricRateLimitRequests,
		MetricRateLimitBlocked,
		MetricRateLimitRedisErrors,
		MetricHTTPRequestDuration,
		MetricHTTPRequestsTotal,
		MetricHTTPRequestSizeBytes,
		MetricHTTPResponseSizeBytes,
	} {
		if gatherFamily(t, reg, name) == nil {
			t.Errorf("metric %s not found in registry", name)
		}
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("registering the same collectors twice should fail")
	}
}

func TestMetrics_RateLimitCounterLabels(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.IncRateLimitRequests("/recommendations", "user")
	m.IncRateLimitRequests("/recommendations", "user")
	m.IncRateLimitRequests("/venues", "ip")
	m.IncRateLimitBlocked("/recommendations", "user")

	requests := gatherFamily(t, reg, MetricRateLimitRequests)
	if requests == nil {
		t.Fatalf("%s not found", MetricRateLimitRequests)
	}
	// One series per (endpoint, key_type) pair.
	if got := len(requests.GetMetric()); got != 2 {
		t.Errorf("request series = %d, want 2", got)
	}
	for _, metric := range requests.GetMetric() {
		labels := map[string]string{}
		for _, pair := range metric.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		switch labels["endpoint"] {
		case "/recommendations":
			if labels["key_type"] != "user" || metric.GetCounter().GetValue() != 2 {
				t.Errorf("/recommendations series = %v/%v, want user/2", labels["key_type"], metric.GetCounter().GetValue())
			}
		case "/venues":
			if labels["key_type"] != "ip" || metric.GetCounter().GetValue() != 1 {
				t.Errorf("/venues series = %v/%v, want ip/1", labels["key_type"], metric.GetCounter().GetValue())
			}
		default:
			t.Errorf("unexpected endpoint label %q", labels["endpoint"])
		}
	}

	blocked := gatherFamily(t, reg, MetricRateLimitBlocked)
	if blocked == nil {
		t.Fatalf("%s not found", MetricRateLimitBlocked)
	}
	if got := len(blocked.GetMetric()); got != 1 {
		t.Errorf("blocked series = %d, want 1", got)
	}
}

func TestMetrics_RedisErrorCounter(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.IncRateLimitRedisErrors()
	m.IncRateLimitRedisErrors()

	family := gatherFamily(t, reg, MetricRateLimitRedisErrors)
	if family == nil {
		t.Fatalf("%s not found", MetricRateLimitRedisErrors)
	}
	if got := family.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("redis error count = %v, want 2", got)
	}
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.ObserveHTTPRequest("POST", "/visits", "201", 0.040, 96, 212)
	m.ObserveHTTPRequest("POST", "/visits", "201", 0.055, 102, 212)

	total := gatherFamily(t, reg, MetricHTTPRequestsTotal)
	if total == nil {
		t.Fatalf("%s not found", MetricHTTPRequestsTotal)
	}
	if got := total.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("requests total = %v, want 2", got)
	}

	duration := gatherFamily(t, reg, MetricHTTPRequestDuration)
	if duration == nil {
		t.Fatalf("%s not found", MetricHTTPRequestDuration)
	}
	hist := duration.GetMetric()[0].GetHistogram()
	if hist.GetSampleCount() != 2 {
		t.Errorf("duration sample count = %d, want 2", hist.GetSampleCount())
	}
}

func TestMetrics_Collectors(t *testing.T) {
	m := NewMetrics()
	if got := len(m.Collectors()); got != 7 {
		t.Errorf("Collectors() returned %d collectors, want 7", got)
	}
}
