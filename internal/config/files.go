package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ryanbastic/rollcall/internal/dategen"
	"github.com/ryanbastic/rollcall/internal/schedule"
)

// Seed is the bootstrap data written into an empty store.
type Seed struct {
	Participants []string
	Dates        []schedule.DateInput
}

type seedFile struct {
	Participants []string `yaml:"participants"`
	Dates        []struct {
		Date string `yaml:"date"`
		Note string `yaml:"note"`
	} `yaml:"dates"`
}

// DefaultSeed returns the built-in bootstrap data.
func DefaultSeed() Seed {
	return Seed{
		Participants: []string{"Anna", "Boris", "Clara", "David"},
		Dates: []schedule.DateInput{
			{Date: "2025-04-10", Note: "Kroměříž"},
			{Date: "2025-04-11", Note: ""},
			{Date: "2025-04-12", Note: "Veverská Bítýška festival"},
			{Date: "2025-04-13", Note: ""},
		},
	}
}

// LoadSeedFile reads a YAML seed file and validates it.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}

	var raw seedFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Seed{}, fmt.Errorf("parse seed file: %w", err)
	}
	if len(raw.Participants) == 0 && len(raw.Dates) == 0 {
		return Seed{}, fmt.Errorf("seed file: no participants or dates defined")
	}

	var seed Seed
	for i, name := range raw.Participants {
		name = strings.TrimSpace(name)
		if name == "" {
			return Seed{}, fmt.Errorf("seed file: participant #%d has an empty name", i)
		}
		seed.Participants = append(seed.Participants, name)
	}
	for i, d := range raw.Dates {
		day, err := dategen.ParseDay(d.Date)
		if err != nil {
			return Seed{}, fmt.Errorf("seed file: date #%d: %w", i, err)
		}
		seed.Dates = append(seed.Dates, schedule.DateInput{Date: dategen.FormatDay(day), Note: strings.TrimSpace(d.Note)})
	}
	return seed, nil
}

// SubscriberConfig describes one JSON-RPC endpoint that receives change events.
// An empty Events list subscribes to every event.
type SubscriberConfig struct {
	Name     string   `yaml:"name"`
	Endpoint string   `yaml:"endpoint"`
	Events   []string `yaml:"events"`
}

// NotifyConfig holds the list of change subscribers.
type NotifyConfig struct {
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

// LoadNotifyConfig reads a YAML subscriber file and validates it.
func LoadNotifyConfig(path string) (*NotifyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notify config: %w", err)
	}

	var cfg NotifyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse notify config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Subscribers))
	for i, s := range cfg.Subscribers {
		if s.Name == "" {
			return nil, fmt.Errorf("notify config: subscriber #%d has empty name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("notify config: subscriber %q is defined more than once", s.Name)
		}
		seen[s.Name] = true

		u, err := url.Parse(s.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("notify config: subscriber %q has invalid endpoint %q", s.Name, s.Endpoint)
		}
	}
	return &cfg, nil
}
