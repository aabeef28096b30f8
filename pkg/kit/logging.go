package kit

import (
	"go.uber.org/zap"
)

// NewLogger builds the production JSON logger tagged with service. An empty
// level means info.
func NewLogger(service, level string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.InitialFields = map[string]any{"service": service}
	return cfg.Build()
}
