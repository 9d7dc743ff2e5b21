package progress

import (
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// NewNopSink returns the sink used with --non-interactive and --json
func NewNopSink() usecase.ProgressSink {
	return usecase.NopProgress{}
}
