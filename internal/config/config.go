package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type PlaygroundConfig struct {
	Version    int `yaml:"version"`
	Playground struct {
		ID              string `yaml:"id"`
		Name            string `yaml:"name"`
		Catalog         string `yaml:"catalog"`
		Locale          string `yaml:"locale"`
		CompletionCoins int    `yaml:"completion_coins"`
	} `yaml:"playground"`
	Network struct {
		UIPort       int    `yaml:"ui_port"`
		MQTT         string `yaml:"mqtt_url"`
		PublishStage bool   `yaml:"publish_stage"`
		RemoteDrops  bool   `yaml:"remote_drops"`
	} `yaml:"network"`
	Speech struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic"`
	} `yaml:"speech"`
	Storage struct {
		Postgres bool   `yaml:"postgres"`
		SQLite   string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	PuzzlesFile string `yaml:"puzzles_file"`
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *PlaygroundConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// PlaygroundID returns the playground id, defaulting to "default".
func (c *PlaygroundConfig) PlaygroundID() string {
	if c.Playground.ID == "" {
		return "default"
	}
	return c.Playground.ID
}

// SpeechTopic returns the MQTT topic narration is published to.
func (c *PlaygroundConfig) SpeechTopic() string {
	if c.Speech.Topic == "" {
		return "scratchy/" + c.PlaygroundID() + "/speech"
	}
	return c.Speech.Topic
}

// StageTopic returns the MQTT topic stage frames are published to.
func (c *PlaygroundConfig) StageTopic() string {
	return "scratchy/" + c.PlaygroundID() + "/stage"
}

// DropTopic returns the MQTT topic remote drag payloads arrive on.
func (c *PlaygroundConfig) DropTopic() string {
	return "scratchy/" + c.PlaygroundID() + "/drop"
}

// MQTTURL returns the broker url; MQTT_URL in the environment wins.
func (c *PlaygroundConfig) MQTTURL() string {
	return EnvOr("MQTT_URL", c.Network.MQTT)
}

// PuzzleConfig is one puzzle entry in puzzles.yaml.
type PuzzleConfig struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	TitleAr       string   `yaml:"title_ar"`
	Description   string   `yaml:"description"`
	DescriptionAr string   `yaml:"description_ar"`
	Joke          string   `yaml:"joke_of_the_day"`
	JokeAr        string   `yaml:"joke_of_the_day_ar"`
	Catalog       string   `yaml:"catalog"`
	Blocks        []string `yaml:"blocks"`
	Solution      []string `yaml:"solution"`
	CoinsReward   int      `yaml:"coins_reward"`
}

type PuzzlesConfig struct {
	Version int            `yaml:"version"`
	Puzzles []PuzzleConfig `yaml:"puzzles"`
}

func LoadPlaygroundConfig(path string) (*PlaygroundConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg PlaygroundConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported playground.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}

func LoadPuzzlesConfig(path string) (*PuzzlesConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg PuzzlesConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported puzzles.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
