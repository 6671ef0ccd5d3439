package api

import (
	"testing"
	"time"
)

func TestDependencyAlertDelayAndRecovery(t *testing.T) {
	a := &dependencyAlert{event: "mqtt_disconnected", name: "MQTT", severity: SeverityWarning, delay: 30 * time.Second}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if p := a.observe(true, t0); p != nil {
		t.Errorf("no alert while connected, got %+v", p)
	}
	if p := a.observe(false, t0); p != nil {
		t.Errorf("no alert before delay, got %+v", p)
	}
	if p := a.observe(false, t0.Add(10*time.Second)); p != nil {
		t.Errorf("no alert before delay, got %+v", p)
	}

	p := a.observe(false, t0.Add(31*time.Second))
	if p == nil || p.Severity != SeverityWarning || p.Details["disconnected_seconds"] != 31 {
		t.Fatalf("expected warning after delay, got %+v", p)
	}
	if p := a.observe(false, t0.Add(60*time.Second)); p != nil {
		t.Errorf("alert must fire once per outage, got %+v", p)
	}

	rec := a.observe(true, t0.Add(61*time.Second))
	if rec == nil || rec.Severity != SeverityInfo {
		t.Fatalf("expected recovery notice, got %+v", rec)
	}
	if p := a.observe(true, t0.Add(62*time.Second)); p != nil {
		t.Errorf("recovery must be sent once, got %+v", p)
	}
}

func TestShortOutageNoRecoveryNotice(t *testing.T) {
	a := &dependencyAlert{name: "PostgreSQL", severity: SeverityCritical, delay: 5 * time.Second}
	t0 := time.Now()
	a.observe(false, t0)
	if p := a.observe(true, t0.Add(time.Second)); p != nil {
		t.Errorf("no recovery for an outage that never alerted, got %+v", p)
	}
}

func TestCheckAlertsIgnoresOptionalDependencies(t *testing.T) {
	alertMu.Lock()
	mqttAlert.downSince, mqttAlert.sent, mqttAlert.delay = time.Time{}, false, 0
	pgAlert.downSince, pgAlert.sent, pgAlert.delay = time.Time{}, false, 0
	alertMu.Unlock()

	setReadiness(true, false, true, false, false)
	out := checkAlerts(time.Now())
	if len(out) != 1 || out[0].Event != "postgres_unavailable" {
		t.Errorf("expected only the required postgres alert, got %+v", out)
	}
}
