package entity

// EventKind тип уведомления от канала воркера
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// WorkerEvent уведомление, пришедшее через границу воркера
type WorkerEvent struct {
	Kind       EventKind
	RequestID  string
	Detections DetectionSet // только для EventCompleted
	Failure    *Failure     // только для EventFailed
}
