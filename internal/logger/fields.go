package logger

import "log/slog"

// Standard field keys. Use these consistently so log lines can be queried
// across the lifecycle coordinator, the request pipeline and the store.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// HTTP requests
	KeyRequestID  = "request_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyRoute      = "route" // chi route pattern, e.g. /api/v1/settings/{key}
	KeyStatus     = "status"
	KeyBytes      = "bytes"
	KeyClientIP   = "client_ip"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"

	// Lifecycle
	KeyState       = "state"
	KeyFromState   = "from"
	KeyEvent       = "event"
	KeyStep        = "step"
	KeySignal      = "signal"
	KeyPort        = "port"
	KeyMode        = "mode"
	KeyEnvironment = "environment"
	KeyURL         = "url"

	// Store
	KeyStoreType = "store_type"
	KeyKey       = "key"

	// Misc
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyPanic      = "panic"
	KeyStack      = "stack"
)

// Err returns an attribute for err. A nil error yields an empty attr,
// which the text handler skips.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// RequestID returns an attribute for the request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// State returns an attribute for a lifecycle state name
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Port returns an attribute for a TCP port
func Port(p int) slog.Attr {
	return slog.Int(KeyPort, p)
}

// DurationMs returns an attribute for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
