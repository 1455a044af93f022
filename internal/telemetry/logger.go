package telemetry

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
)

// NewLogger builds a logr.Logger on top of the standard library logger.
// Verbosity follows logr: V(0) is always shown, V(1) pass summaries,
// V(2) per-episode and per-batch detail.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	stdr.SetVerbosity(verbosity)
	logger := stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.Error})
	otel.SetLogger(logger.WithName("otel"))
	return logger.WithName(serviceName)
}
