package notify

import (
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
)

// Event names sent to browser clients
const (
	EventKick            = "auth:kick"
	EventTaskProgress    = "task:progress"
	EventTaskCompleted   = "task:completed"
	EventTaskFailed      = "task:failed"
	EventTemplateChanged = "template:changed"
)

// Notification is one of the typed events the bus can deliver
type Notification interface {
	Event() string
}

// Envelope is a frame written to a connection
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewEnvelope wraps notification for sending
func NewEnvelope(n Notification) *Envelope {
	return &Envelope{Event: n.Event(), Data: n}
}

// Kick asks the client to drop its session
type Kick struct {
	Message string `json:"message"`
}

// Event name
func (Kick) Event() string { return EventKick }

// TaskProgress is sent on every observed status change
type TaskProgress struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Progress int32  `json:"progress"`
}

// Event name
func (TaskProgress) Event() string { return EventTaskProgress }

// TaskCompleted carries task results
type TaskCompleted struct {
	TaskID  string       `json:"taskId"`
	Results *api.Results `json:"results,omitempty"`
	Metrics *api.Metrics `json:"metrics,omitempty"`
}

// Event name
func (TaskCompleted) Event() string { return EventTaskCompleted }

// TaskFailed carries MAIE failure info
type TaskFailed struct {
	TaskID    string `json:"taskId"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

// Event name
func (TaskFailed) Event() string { return EventTaskFailed }

// TemplateAction describes a change of a template
type TemplateAction string

// Template actions
const (
	TemplateCreated TemplateAction = "created"
	TemplateUpdated TemplateAction = "updated"
	TemplateDeleted TemplateAction = "deleted"
)

// TemplateChanged is sent to the template owner
type TemplateChanged struct {
	TemplateID string         `json:"templateId"`
	Name       string         `json:"name,omitempty"`
	Action     TemplateAction `json:"action"`
}

// Event name
func (TemplateChanged) Event() string { return EventTemplateChanged }
