// Package sse implements Server-Sent Events for live station updates:
// scale readings, workflow transitions and print outcomes.
package sse

import (
	"time"

	"github.com/canlabel/labeler-station/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventWorkflowState is sent on every print workflow transition.
	EventWorkflowState EventType = "workflow.state"
	// EventPrintCompleted is sent once a label was committed and dispatched.
	EventPrintCompleted EventType = "print.completed"
	// EventPrintFailed is sent when an attempt aborts or faults.
	EventPrintFailed EventType = "print.failed"
	// EventLabelReprinted is sent after a stored label was sent again.
	EventLabelReprinted EventType = "label.reprinted"

	// EventReconcileRequired means a record exists for a can id the counter
	// has not moved past. Printing is blocked until the ledger is reconciled.
	EventReconcileRequired EventType = "ledger.reconcile_required"
	// EventReconciled is sent after the counter was moved forward.
	EventReconciled EventType = "ledger.reconciled"

	// EventScaleWeight carries a weight reading (throttled).
	EventScaleWeight EventType = "scale.weight"
	// EventScaleConnected is sent when the scale device was opened.
	EventScaleConnected EventType = "scale.connected"
	// EventScaleDisconnected is sent when the read loop ended.
	EventScaleDisconnected EventType = "scale.disconnected"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// WorkflowStateEventData is the payload of workflow.state.
type WorkflowStateEventData struct {
	State     domain.WorkflowState `json:"state"`
	AttemptID string               `json:"attempt_id,omitempty"`
	NextID    int64                `json:"next_id"`
}

// PrintCompletedEventData is the payload of print.completed and label.reprinted.
type PrintCompletedEventData struct {
	AttemptID string `json:"attempt_id,omitempty"`
	Code21    string `json:"code21"`
	Lot       string `json:"lot"`
	CanID     int64  `json:"can_id"`
}

// PrintFailedEventData is the payload of print.failed.
type PrintFailedEventData struct {
	AttemptID string               `json:"attempt_id,omitempty"`
	State     domain.WorkflowState `json:"state"`
	Code      string               `json:"code"`
	Message   string               `json:"message"`
}

// ReconcileEventData is the payload of the ledger events.
type ReconcileEventData struct {
	CounterID string `json:"counter_id"`
	NextID    int64  `json:"next_id"`
	MaxCanID  int64  `json:"max_can_id"`
}

// ScaleWeightEventData is the payload of scale.weight.
type ScaleWeightEventData struct {
	Port  string `json:"port"`
	Grams int64  `json:"grams"`
}

// ScaleStatusEventData is the payload of scale.connected and scale.disconnected.
type ScaleStatusEventData struct {
	Port  string `json:"port"`
	Error string `json:"error,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}

// NewWorkflowStateEvent creates a workflow.state event.
func NewWorkflowStateEvent(state domain.WorkflowState, attemptID string, nextID int64) Event {
	return newEvent(EventWorkflowState, WorkflowStateEventData{State: state, AttemptID: attemptID, NextID: nextID})
}

// NewPrintCompletedEvent creates a print.completed event.
func NewPrintCompletedEvent(attemptID string, rec *domain.PrintRecord) Event {
	return newEvent(EventPrintCompleted, PrintCompletedEventData{
		AttemptID: attemptID,
		CanID:     rec.CanID,
		Code21:    rec.Code21,
		Lot:       rec.Lot,
	})
}

// NewLabelReprintedEvent creates a label.reprinted event.
func NewLabelReprintedEvent(rec *domain.PrintRecord) Event {
	return newEvent(EventLabelReprinted, PrintCompletedEventData{CanID: rec.CanID, Code21: rec.Code21, Lot: rec.Lot})
}

// NewPrintFailedEvent creates a print.failed event.
func NewPrintFailedEvent(attemptID string, state domain.WorkflowState, code, message string) Event {
	return newEvent(EventPrintFailed, PrintFailedEventData{
		AttemptID: attemptID,
		State:     state,
		Code:      code,
		Message:   message,
	})
}

// NewReconcileRequiredEvent creates a ledger.reconcile_required event.
func NewReconcileRequiredEvent(counterID string, nextID, maxCanID int64) Event {
	return newEvent(EventReconcileRequired, ReconcileEventData{CounterID: counterID, NextID: nextID, MaxCanID: maxCanID})
}

// NewReconciledEvent creates a ledger.reconciled event.
func NewReconciledEvent(counterID string, nextID, maxCanID int64) Event {
	return newEvent(EventReconciled, ReconcileEventData{CounterID: counterID, NextID: nextID, MaxCanID: maxCanID})
}

// NewScaleWeightEvent creates a scale.weight event.
func NewScaleWeightEvent(port string, grams int64) Event {
	return newEvent(EventScaleWeight, ScaleWeightEventData{Port: port, Grams: grams})
}

// NewScaleConnectedEvent creates a scale.connected event.
func NewScaleConnectedEvent(port string) Event {
	return newEvent(EventScaleConnected, ScaleStatusEventData{Port: port})
}

// NewScaleDisconnectedEvent creates a scale.disconnected event. err may be nil.
func NewScaleDisconnectedEvent(port string, err error) Event {
	data := ScaleStatusEventData{Port: port}
	if err != nil {
		data.Error = err.Error()
	}
	return newEvent(EventScaleDisconnected, data)
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Timestamp: now, Data: HeartbeatEventData{ServerTime: now}}
}
