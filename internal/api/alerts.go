package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Playground string                 `json:"playground"`
	Event      string                 `json:"event"`
	Timestamp  string                 `json:"timestamp"`
	Severity   string                 `json:"severity"`
	Message    string                 `json:"message,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// dependencyAlert raises an alert once a dependency has been down for
// delay, and a recovery notice when it comes back.
type dependencyAlert struct {
	event    string
	name     string
	severity string
	delay    time.Duration

	downSince time.Time
	sent      bool
}

// observe records the current state and returns the alert to send, if any.
func (a *dependencyAlert) observe(connected bool, now time.Time) *AlertPayload {
	if connected {
		recovered := a.sent
		a.downSince = time.Time{}
		a.sent = false
		if !recovered {
			return nil
		}
		return &AlertPayload{
			Event:    a.event,
			Severity: SeverityInfo,
			Message:  a.name + " connection restored",
			Details:  map[string]interface{}{"recovered_at": now.UTC().Format(time.RFC3339)},
		}
	}

	if a.downSince.IsZero() {
		a.downSince = now
	}
	down := now.Sub(a.downSince)
	if a.sent || down < a.delay {
		return nil
	}
	a.sent = true
	return &AlertPayload{
		Event:    a.event,
		Severity: a.severity,
		Message:  a.name + " unavailable",
		Details: map[string]interface{}{
			"disconnected_since":   a.downSince.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(down.Seconds()),
		},
	}
}

var (
	alertMu    sync.Mutex
	webhookURL string
	mqttAlert  = &dependencyAlert{event: "mqtt_disconnected", name: "MQTT", severity: SeverityWarning, delay: 30 * time.Second}
	pgAlert    = &dependencyAlert{event: "postgres_unavailable", name: "PostgreSQL", severity: SeverityCritical, delay: 5 * time.Second}
)

// InitAlerts reads SCRATCHY_ALERT_WEBHOOK_URL and the optional
// SCRATCHY_{MQTT,POSTGRES}_ALERT_DELAY durations.
func InitAlerts() {
	alertMu.Lock()
	defer alertMu.Unlock()

	webhookURL = os.Getenv("SCRATCHY_ALERT_WEBHOOK_URL")
	for env, a := range map[string]*dependencyAlert{
		"SCRATCHY_MQTT_ALERT_DELAY":     mqttAlert,
		"SCRATCHY_POSTGRES_ALERT_DELAY": pgAlert,
	} {
		if s := os.Getenv(env); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				a.delay = d
			}
		}
	}

	if webhookURL != "" {
		log.Printf("Alerts enabled: webhook URL configured (mqtt_delay=%s, pg_delay=%s)",
			mqttAlert.delay, pgAlert.delay)
	}
}

// SendAlert posts an alert to the webhook in the background, or logs it
// when no webhook is configured.
func SendAlert(p AlertPayload) {
	alertMu.Lock()
	url := webhookURL
	alertMu.Unlock()

	if p.Playground = GetPlaygroundName(); p.Playground == "" {
		p.Playground = "unknown"
	}
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if url == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", p.Event, p.Severity, p.Message, p.Details)
		return
	}
	go sendWebhook(url, p)
}

func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// checkAlerts compares the readiness state with the alert trackers.
func checkAlerts(now time.Time) []AlertPayload {
	readiness.mu.RLock()
	mqttConnected := readiness.mqttConnected || readiness.mqttOptional
	pgConnected := readiness.postgresConnected || readiness.postgresOptional
	readiness.mu.RUnlock()

	alertMu.Lock()
	defer alertMu.Unlock()

	var out []AlertPayload
	if p := mqttAlert.observe(mqttConnected, now); p != nil {
		out = append(out, *p)
	}
	if p := pgAlert.observe(pgConnected, now); p != nil {
		out = append(out, *p)
	}
	return out
}

// StartAlertMonitor checks required dependencies every interval until stop
// is closed.
func StartAlertMonitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				for _, p := range checkAlerts(now) {
					SendAlert(p)
				}
			}
		}
	}()
}
