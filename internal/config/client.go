package config

import (
	"encoding/json"
	"fmt"
)

type clientSettings struct {
	Prefab struct {
		CatalogPath    *string  `json:"catalogPath,omitempty"`
		Debounce       *string  `json:"debounce,omitempty"`
		MaxDiagnostics *int     `json:"maxDiagnostics,omitempty"`
		Trace          *string  `json:"trace,omitempty"`
		Environments   []string `json:"environments,omitempty"`
	} `json:"prefab"`
}

// ApplyClient applies the "prefab" section of workspace/didChangeConfiguration
// settings. Absent fields keep their current value.
func ApplyClient(s Settings, raw json.RawMessage) (Settings, error) {
	if len(raw) == 0 {
		return s, nil
	}
	var cfg clientSettings
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return s, fmt.Errorf("invalid client settings: %w", err)
	}
	out := s
	p := cfg.Prefab
	if p.CatalogPath != nil {
		out.CatalogPath = *p.CatalogPath
	}
	if p.Debounce != nil {
		d, err := parseDebounce(*p.Debounce)
		if err != nil {
			return s, err
		}
		out.Debounce = d
	}
	if p.MaxDiagnostics != nil {
		out.MaxDiagnostics = *p.MaxDiagnostics
	}
	if p.Trace != nil {
		out.TraceLevel = *p.Trace
	}
	if p.Environments != nil {
		out.Environments = normalizeList(p.Environments)
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}
