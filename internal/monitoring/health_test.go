package monitoring

import (
	"context"
	"errors"
	"testing"
)

type pingOK struct{}

func (p *pingOK) Ping(context.Context) error { return nil }

type pingFail struct{}

func (p *pingFail) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy")
	}
}

func TestHealthChecker_DegradedDoesNotTurnUnhealthy(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("slow", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	status := hc.CheckHealth()
	if status.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %q", status.Status)
	}
}

func TestSourceRegistryHealthCheck(t *testing.T) {
	res := SourceRegistryHealthCheck(func() []string { return []string{"wildberries", "ozon"} })()
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q", res.Status)
	}

	res = SourceRegistryHealthCheck(func() []string { return nil })()
	if res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy for empty registry, got %q", res.Status)
	}
}

func TestCacheBackendHealthCheck(t *testing.T) {
	res := CacheBackendHealthCheck("memory", nil)()
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy for in-process backend, got %q", res.Status)
	}

	res = CacheBackendHealthCheck("redis", &pingOK{})()
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q", res.Status)
	}

	res = CacheBackendHealthCheck("redis", &pingFail{})()
	if res.Status != StatusDegraded {
		t.Fatalf("expected degraded for unreachable backend, got %q", res.Status)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	res := ConfigurationHealthCheck(map[string]string{"PORT": "18090"})()
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy")
	}

	res = ConfigurationHealthCheck(map[string]string{"SERVICE_TOKEN": ""})()
	if res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy for missing configuration")
	}
}
