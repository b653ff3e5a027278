package broker

import (
	"log/slog"

	"github.com/mee4895/sspq-go/internal/debug"
)

// RegisterLogger configures the broker's structured event sink with the
// given slog.Handler.
//
// By default the broker uses a no-op handler and emits nothing; formatting
// and filtering of events is the collaborator's concern, not the core's.
func RegisterLogger(h slog.Handler) {
	debug.RegisterLogger(h)
}
