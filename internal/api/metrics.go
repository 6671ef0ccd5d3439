package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu             sync.RWMutex
	startTime      time.Time
	playgroundName string
	running        func() bool
	coins          func() int
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetPlaygroundName sets the playground label on every metric.
func SetPlaygroundName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.playgroundName = name
}

// GetPlaygroundName returns the current playground label.
func GetPlaygroundName() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.playgroundName
}

// SetMetricSources registers the gauges read at scrape time.
func SetMetricSources(running func() bool, coins func() int) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.running = running
	metricsState.coins = coins
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	name := metricsState.playgroundName
	running := metricsState.running
	coins := metricsState.coins
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	engineReady := readiness.engineReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	runActive := false
	if running != nil {
		runActive = running()
	}
	coinsTotal := 0
	if coins != nil {
		coinsTotal = coins()
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	labels := fmt.Sprintf(`playground="%s",instance="%s",version="%s"`, name, hostname, version.Version)
	writeMetric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("scratchy_uptime_seconds", "gauge",
		"Number of seconds since the playground started", time.Since(startTime).Seconds())
	writeMetric("scratchy_engine_ready", "gauge",
		"Whether the playground is loaded (1) or not (0)", boolGauge(engineReady))
	writeMetric("scratchy_run_active", "gauge",
		"Whether a program is running (1) or not (0)", boolGauge(runActive))
	writeMetric("scratchy_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("scratchy_events_dropped_total", "counter",
		"Events not persisted because the store queue was full", events.DroppedCount())
	writeMetric("scratchy_coins_total", "gauge",
		"Coins earned by the learner", coinsTotal)
	writeMetric("scratchy_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected))
	writeMetric("scratchy_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected))
	writeMetric("scratchy_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount())
}
