// Package settings holds the user-visible toggles of the language server.
//
// Values are layered: built-in defaults, then a .env file in the working
// directory, then the process environment, then whatever the client sends
// in initializationOptions or workspace/didChangeConfiguration.
//
// Environment variables:
//
//	SLANGREF_ENABLE_CONVERSION   enable the string conversion code actions
//	SLANGREF_SHOW_DETAILED_INFO  add variable, type and locale to hovers
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/tliron/commonlog"
)

// Section is the client configuration section name.
const Section = "slangReferences"

const (
	EnvEnableConversion = "SLANGREF_ENABLE_CONVERSION"
	EnvShowDetailedInfo = "SLANGREF_SHOW_DETAILED_INFO"
)

var log = commonlog.GetLogger("slangref.settings")

// Settings are the server toggles.
type Settings struct {
	ConversionEnabled bool `json:"enableStringConversion"`
	ShowDetailedInfo  bool `json:"showDetailedInfo"`
}

// Default returns the built-in defaults.
func Default() Settings {
	return Settings{ConversionEnabled: true}
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// FromEnv returns the defaults overridden by envFiles (".env" when none are
// given) and then by the process environment. Missing env files are
// ignored; process variables win over file values.
func FromEnv(envFiles ...string) Settings {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	values := make(map[string]string)
	for _, f := range envFiles {
		m, err := godotenv.Read(f)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warningf("reading %s: %s", f, err)
			}
			continue
		}
		for k, v := range m {
			values[k] = v
		}
	}
	for _, k := range []string{EnvEnableConversion, EnvShowDetailedInfo} {
		if v, ok := os.LookupEnv(k); ok {
			values[k] = v
		}
	}

	s := Default()
	s.ConversionEnabled = boolValue(values, EnvEnableConversion, s.ConversionEnabled)
	s.ShowDetailedInfo = boolValue(values, EnvShowDetailedInfo, s.ShowDetailedInfo)
	return s
}

func boolValue(values map[string]string, key string, fallback bool) bool {
	v, ok := values[key]
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warningf("%s=%q is not a boolean, using %t", key, v, fallback)
		return fallback
	}
	return b
}

// ---------------------------------------------------------------------------
// Client configuration
// ---------------------------------------------------------------------------

type patch struct {
	EnableStringConversion *bool `json:"enableStringConversion"`
	ShowDetailedInfo       *bool `json:"showDetailedInfo"`
}

type wrapped struct {
	Section *patch `json:"slangReferences"`
	patch
}

// Merge applies client configuration over s. raw is either the section
// itself or an object holding it under "slangReferences"; fields it does
// not mention keep their current value. A nil raw changes nothing.
func (s Settings) Merge(raw any) (Settings, error) {
	if raw == nil {
		return s, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return s, fmt.Errorf("encoding client settings: %w", err)
	}
	if string(data) == "null" {
		return s, nil
	}

	var w wrapped
	if err := json.Unmarshal(data, &w); err != nil {
		return s, fmt.Errorf("decoding client settings: %w", err)
	}
	p := w.patch
	if w.Section != nil {
		p = *w.Section
	}
	if p.EnableStringConversion != nil {
		s.ConversionEnabled = *p.EnableStringConversion
	}
	if p.ShowDetailedInfo != nil {
		s.ShowDetailedInfo = *p.ShowDetailedInfo
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Shared value
// ---------------------------------------------------------------------------

// Holder is a Settings value shared between request handlers.
type Holder struct {
	mu sync.RWMutex
	s  Settings
}

// NewHolder returns a holder with initial settings.
func NewHolder(s Settings) *Holder {
	return &Holder{s: s}
}

// Get returns the current settings.
func (h *Holder) Get() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

// Merge applies client configuration to the current settings.
func (h *Holder) Merge(raw any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.s.Merge(raw)
	if err != nil {
		return err
	}
	h.s = s
	log.Infof("settings: conversion=%t detailed=%t", s.ConversionEnabled, s.ShowDetailedInfo)
	return nil
}
