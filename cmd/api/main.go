package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/api"
	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/config"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/mqtt"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/postgres"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/sqlite"
	"github.com/AaronLay10/ScratchyEngine/internal/version"
)

func main() {
	cfgPath := config.EnvOr("SCRATCHY_CONFIG", "config/playground.yaml")
	cfg, err := config.LoadPlaygroundConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", cfgPath, err)
	}
	id := cfg.PlaygroundID()

	if err := api.InitAuth(); err != nil {
		log.Fatalf("auth: %v", err)
	}
	api.InitTLS()
	api.InitMetrics()
	api.InitAlerts()
	api.SetPlaygroundName(cfg.Playground.Name)

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "api starting", map[string]interface{}{
		"service":    "api",
		"version":    version.String(),
		"hostname":   hostname,
		"pid":        os.Getpid(),
		"playground": id,
	})

	puzzles, err := engine.LoadPuzzleSet(cfg.PuzzlesFile)
	if err != nil {
		log.Fatalf("puzzles: %v", err)
	}

	// postgres: event log and reward ledger
	var (
		pg       *postgres.Client
		ledger   engine.Ledger
		restored *engine.Progress
	)
	if cfg.Storage.Postgres {
		pg, err = postgres.New(id)
		if err != nil {
			log.Printf("postgres: %v", err)
			events.Emit("error", "system.error", "postgres unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			events.SetSink(pg, id)
			ledger = pg

			p, n, err := engine.RestoreProgress(pg, puzzles.Daily)
			if err != nil {
				log.Printf("restore: %v", err)
			} else {
				restored = p
				engine.EmitStartupRestore(n, p, id)
			}
		}
	}
	api.SetPostgresState(pg != nil, !cfg.Storage.Postgres)

	// sqlite: saved progress
	var kv engine.KV
	var store *sqlite.Store
	if cfg.Storage.SQLite != "" {
		store, err = sqlite.Open(cfg.Storage.SQLite)
		if err != nil {
			log.Printf("sqlite: %v", err)
		} else {
			kv = store
		}
	}

	tracker, err := engine.NewTracker(kv, "progress:"+id, ledger)
	if err != nil {
		log.Fatalf("progress: %v", err)
	}
	tracker.SetDaily(puzzles.Daily)
	tracker.Seed(restored)

	catalog, ok := blocks.ByName(cfg.Playground.Catalog)
	if !ok {
		log.Fatalf("unknown catalog %q", cfg.Playground.Catalog)
	}

	opts := []engine.RunnerOption{
		engine.WithReward(cfg.Playground.CompletionCoins, tracker.RunReward()),
	}

	// mqtt: speech, stage frames, remote drops
	wantMQTT := cfg.Speech.Enabled || cfg.Network.PublishStage || cfg.Network.RemoteDrops
	var broker *mqtt.Client
	if wantMQTT {
		broker = mqtt.NewClient(cfg.MQTTURL(), "scratchy-"+id)
		broker.Start()
		if cfg.Speech.Enabled {
			opts = append(opts, engine.WithSpeaker(mqtt.NewSpeaker(broker, cfg.SpeechTopic(), cfg.Playground.Locale)))
		}
	}

	playground := engine.NewPlayground(catalog, opts...)

	if broker != nil {
		if cfg.Network.PublishStage {
			playground.Stage.Observe(mqtt.NewStagePublisher(broker, cfg.StageTopic()).Observe)
		}
		if cfg.Network.RemoteDrops {
			mqtt.KeepDropsSubscribed(broker, cfg.DropTopic(), func(payload []byte) bool {
				_, ok := playground.Surface.Drop(payload)
				return ok
			})
		}
	}

	api.SetMetricSources(playground.Runner.Active, func() int { return tracker.Snapshot().Coins })
	api.SetMQTTState(broker != nil && broker.IsConnected(), !wantMQTT)
	api.SetEngineReady(true)

	stop := make(chan struct{})
	api.StartAlertMonitor(15*time.Second, stop)
	if broker != nil {
		go watchBroker(broker, stop)
	}

	server := api.NewServer(playground, puzzles, tracker, blocks.ParseLocale(cfg.Playground.Locale))
	if pg != nil {
		server.SetLedger(pg)
		server.SetHistory(pg)
	}
	server.Start(cfg.UIPort())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig

	events.Emit("info", "system.shutdown", "api stopping", map[string]interface{}{"signal": s.String()})
	close(stop)
	server.Close()
	events.CloseAllSubscribers()
	if broker != nil {
		broker.Disconnect()
	}
	if store != nil {
		store.Close()
	}
	if pg != nil {
		events.SetSink(nil, "")
		pg.Close()
	}
}

// watchBroker keeps the readiness view of the broker current while paho
// reconnects in the background.
func watchBroker(c *mqtt.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			api.SetMQTTState(c.IsConnected(), false)
		}
	}
}

