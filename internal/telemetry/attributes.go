package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys used on spans emitted by this service.
const (
	AttrLifecycleStep  = "lifecycle.step"
	AttrLifecycleState = "lifecycle.state"
	AttrLifecycleMode  = "lifecycle.mode"
	AttrServerPort     = "server.port"

	AttrDBSystem    = "db.system"
	AttrDBOperation = "db.operation"

	AttrHTTPRoute     = "http.route"
	AttrRequestID     = "http.request_id"
	AttrSettingKey    = "setting.key"
	AttrSyncAlter     = "db.sync.alter"
	AttrShutdownCause = "lifecycle.shutdown_cause"
)

// LifecycleState returns an attribute for a lifecycle state name.
func LifecycleState(state string) attribute.KeyValue {
	return attribute.String(AttrLifecycleState, state)
}

// Mode returns an attribute for the runtime mode.
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrLifecycleMode, mode)
}

// ServerPort returns an attribute for the listening port.
func ServerPort(port int) attribute.KeyValue {
	return attribute.Int(AttrServerPort, port)
}

// SyncAlter returns an attribute recording whether schema sync may alter tables.
func SyncAlter(alter bool) attribute.KeyValue {
	return attribute.Bool(AttrSyncAlter, alter)
}

// SettingKey returns an attribute for a settings key.
func SettingKey(key string) attribute.KeyValue {
	return attribute.String(AttrSettingKey, key)
}

// ShutdownCause returns an attribute describing why shutdown began.
func ShutdownCause(cause string) attribute.KeyValue {
	return attribute.String(AttrShutdownCause, cause)
}
