package metrics

import "time"

// HTTPMetrics records per-request measurements.
type HTTPMetrics interface {
	// ObserveRequest records one completed request. route is the matched
	// route pattern (or "unmatched"), never the raw path.
	ObserveRequest(method, route string, status int, duration time.Duration)

	// RequestStarted and RequestFinished track in-flight requests.
	RequestStarted()
	RequestFinished()
}

// LifecycleMetrics records coordinator state.
type LifecycleMetrics interface {
	// SetState marks state as current.
	SetState(state string)

	// ObserveStartup records the time from process start to Listening.
	ObserveStartup(duration time.Duration)

	// RecordShutdown counts a termination by cause ("signal", "fault",
	// "startup_failure").
	RecordShutdown(cause string)
}

// ObserveRequest records a request if m is non-nil.
func ObserveRequest(m HTTPMetrics, method, route string, status int, duration time.Duration) {
	if m != nil {
		m.ObserveRequest(method, route, status, duration)
	}
}

// RequestStarted increments in-flight requests if m is non-nil.
func RequestStarted(m HTTPMetrics) {
	if m != nil {
		m.RequestStarted()
	}
}

// RequestFinished decrements in-flight requests if m is non-nil.
func RequestFinished(m HTTPMetrics) {
	if m != nil {
		m.RequestFinished()
	}
}

// SetState records the current lifecycle state if m is non-nil.
func SetState(m LifecycleMetrics, state string) {
	if m != nil {
		m.SetState(state)
	}
}

// ObserveStartup records startup duration if m is non-nil.
func ObserveStartup(m LifecycleMetrics, duration time.Duration) {
	if m != nil {
		m.ObserveStartup(duration)
	}
}

// RecordShutdown counts a termination if m is non-nil.
func RecordShutdown(m LifecycleMetrics, cause string) {
	if m != nil {
		m.RecordShutdown(cause)
	}
}
