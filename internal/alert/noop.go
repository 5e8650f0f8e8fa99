package alert

import (
	"context"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Compile-time interface check.
var _ domain.Alerter = (*NoOp)(nil)

// NoOp is an alerter that only logs. Used when sound is disabled or no
// audio device is available.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a silent alerter.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Alert does nothing.
func (n *NoOp) Alert(ctx context.Context) error {
	n.log.Debug("alert no-op: would chime")
	return nil
}
