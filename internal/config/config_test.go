package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func TestLoadPlaygroundConfig(t *testing.T) {
	p := writeFile(t, "playground.yaml", `
version: 1
playground:
  id: class_3b
  name: Class 3B
  catalog: playground
  completion_coins: 5
network:
  ui_port: 9090
speech:
  enabled: true
puzzles_file: puzzles.yaml
`)

	cfg, err := LoadPlaygroundConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UIPort() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.UIPort())
	}
	if cfg.PlaygroundID() != "class_3b" {
		t.Errorf("unexpected id %q", cfg.PlaygroundID())
	}
	if cfg.SpeechTopic() != "scratchy/class_3b/speech" {
		t.Errorf("unexpected speech topic %q", cfg.SpeechTopic())
	}
	if cfg.Playground.CompletionCoins != 5 {
		t.Errorf("expected 5 completion coins, got %d", cfg.Playground.CompletionCoins)
	}
}

func TestPlaygroundConfigDefaults(t *testing.T) {
	p := writeFile(t, "playground.yaml", "version: 1\n")

	cfg, err := LoadPlaygroundConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UIPort() != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.UIPort())
	}
	if cfg.PlaygroundID() != "default" {
		t.Errorf("expected default id, got %q", cfg.PlaygroundID())
	}
	if cfg.SpeechTopic() != "scratchy/default/speech" {
		t.Errorf("unexpected speech topic %q", cfg.SpeechTopic())
	}
	if cfg.StageTopic() != "scratchy/default/stage" || cfg.DropTopic() != "scratchy/default/drop" {
		t.Errorf("unexpected topics %q %q", cfg.StageTopic(), cfg.DropTopic())
	}
}

func TestMQTTURLEnvOverride(t *testing.T) {
	cfg := &PlaygroundConfig{}
	cfg.Network.MQTT = "tcp://broker:1883"

	t.Setenv("MQTT_URL", "")
	if got := cfg.MQTTURL(); got != "tcp://broker:1883" {
		t.Errorf("expected configured url, got %q", got)
	}
	t.Setenv("MQTT_URL", "tcp://override:1883")
	if got := cfg.MQTTURL(); got != "tcp://override:1883" {
		t.Errorf("expected env url, got %q", got)
	}
}

func TestLoadPlaygroundConfigRejectsVersion(t *testing.T) {
	p := writeFile(t, "playground.yaml", "version: 2\n")
	if _, err := LoadPlaygroundConfig(p); err == nil {
		t.Error("expected version error")
	}
}

func TestLoadPuzzlesConfig(t *testing.T) {
	p := writeFile(t, "puzzles.yaml", `
version: 1
puzzles:
  - id: dc_2
    title: Say Hello Three Times!
    title_ar: قل مرحبا ثلاث مرات!
    catalog: puzzles
    solution: [say, say, say]
    coins_reward: 20
`)

	cfg, err := LoadPuzzlesConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Puzzles) != 1 {
		t.Fatalf("expected 1 puzzle, got %d", len(cfg.Puzzles))
	}
	pz := cfg.Puzzles[0]
	if pz.ID != "dc_2" || len(pz.Solution) != 3 || pz.CoinsReward != 20 {
		t.Errorf("unexpected puzzle %+v", pz)
	}
	if pz.TitleAr != "قل مرحبا ثلاث مرات!" {
		t.Errorf("unexpected arabic title %q", pz.TitleAr)
	}
}

func TestLoadShippedConfigs(t *testing.T) {
	cfg, err := LoadPlaygroundConfig("../../config/playground.yaml")
	if err != nil {
		t.Fatalf("failed to load playground.yaml: %v", err)
	}
	if cfg.PuzzlesFile == "" {
		t.Error("expected puzzles_file to be set")
	}

	pz, err := LoadPuzzlesConfig("../../config/puzzles.yaml")
	if err != nil {
		t.Fatalf("failed to load puzzles.yaml: %v", err)
	}
	if len(pz.Puzzles) != 7 {
		t.Errorf("expected 7 puzzles, got %d", len(pz.Puzzles))
	}
}
