package http

import (
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/view"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestLogger returns the request-scoped logger installed by the trace
// middleware.
func requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}

func rowFor(tx core.Transaction) view.DisplayRow {
	return view.ToRows([]core.Transaction{tx})[0]
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
