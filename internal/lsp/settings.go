package lsp

import (
	"encoding/json"

	"prefabls/internal/config"
	"prefabls/internal/debounce"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.mu.Lock()
	current := s.settings
	s.mu.Unlock()
	settings, err := config.ApplyClient(current, params.Settings)
	if err != nil {
		s.logf("ignoring client settings: %v", err)
		return nil
	}
	s.applySettings(settings)
	return nil
}

// applySettings installs new settings. A changed debounce delay replaces
// the scheduler, dropping pending tails; the next edit starts a new burst.
func (s *Server) applySettings(settings config.Settings) {
	s.mu.Lock()
	old := s.scheduler
	replaced := settings.Debounce != old.Delay()
	if replaced {
		s.scheduler = debounce.NewScheduler(settings.Debounce, s.clock)
	}
	s.settings = settings
	s.mu.Unlock()
	if replaced {
		old.Stop()
	}
	s.orchestrator.SetLimit(settings.MaxDiagnostics)
}

func (s *Server) currentSettings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// lookupEnv resolves a variable from the process environment, then the
// workspace .env file.
func (s *Server) lookupEnv(name string) (string, bool) {
	s.mu.Lock()
	values := s.envValues
	s.mu.Unlock()
	return config.Environ(values)(name)
}
