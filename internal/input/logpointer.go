package input

import (
	"go.uber.org/zap"

	"padlink/internal/protocol"
)

// LogPointer records events in the log instead of injecting them. It backs
// dry-run mode on hosts where injection is unavailable or unwanted.
type LogPointer struct {
	logger *zap.Logger
}

// NewLogPointer creates a dry-run pointer
func NewLogPointer(logger *zap.Logger) *LogPointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPointer{logger: logger.Named("dry-run")}
}

func (p *LogPointer) MoveTo(x, y int32) error {
	p.logger.Info("move", zap.Int32("x", x), zap.Int32("y", y))
	return nil
}

func (p *LogPointer) Press(button protocol.ButtonKind) error {
	p.logger.Info("press", zap.Stringer("button", button))
	return nil
}

func (p *LogPointer) Release(button protocol.ButtonKind) error {
	p.logger.Info("release", zap.Stringer("button", button))
	return nil
}
