package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-reactive/layering"
	"gopkg.in/yaml.v3"
)

// Autosave selects when a store writes to its backing.
type Autosave string

const (
	// AutosaveAuto saves after every write to any container of the graph.
	AutosaveAuto Autosave = "auto"
	// AutosaveManual saves only on Save and SaveAll.
	AutosaveManual Autosave = "manual"
)

// Config describes one store.
type Config struct {
	Ident    string   `yaml:"ident" json:"ident"`
	Autosave Autosave `yaml:"autosave" json:"autosave"`
	Codec    string   `yaml:"codec" json:"codec"`
}

// Validate fills defaults and rejects unknown modes.
func (c Config) Validate() (Config, error) {
	c.Ident = strings.TrimSpace(c.Ident)
	if c.Ident == "" {
		return c, ErrMissingIdent
	}
	c.Autosave = Autosave(strings.ToLower(strings.TrimSpace(string(c.Autosave))))
	switch c.Autosave {
	case "":
		c.Autosave = AutosaveAuto
	case AutosaveAuto, AutosaveManual:
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownAutosave, c.Autosave)
	}
	if _, err := CodecByName(c.Codec); err != nil {
		return c, err
	}
	return c, nil
}

// fileConfig is the layered form of Config: nil fields are unset.
type fileConfig struct {
	Ident    *string `yaml:"ident"`
	Autosave *string `yaml:"autosave"`
	Codec    *string `yaml:"codec"`
}

func defaultFileConfig() fileConfig {
	autosave := string(AutosaveAuto)
	codec := CodecJSON
	return fileConfig{Autosave: &autosave, Codec: &codec}
}

// LoadConfig reads a YAML store configuration. Missing fields fall back to
// autosave "auto" and codec "json"; ident is required.
func LoadConfig(r io.Reader) (Config, error) {
	var file fileConfig
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("store: decode config: %w", err)
	}
	merged := layering.MergeLayers(file, defaultFileConfig())
	cfg := Config{}
	if merged.Ident != nil {
		cfg.Ident = *merged.Ident
	}
	if merged.Autosave != nil {
		cfg.Autosave = Autosave(*merged.Autosave)
	}
	if merged.Codec != nil {
		cfg.Codec = *merged.Codec
	}
	return cfg.Validate()
}
