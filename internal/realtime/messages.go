package realtime

import (
	"net/http"
	"time"

	"bookfast/pkg/model"
)

// ClientMessage is one frame from a client. Exactly one action is set.
type ClientMessage struct {
	ID     int         `json:"id,omitempty"`
	Join   *Join       `json:"join,omitempty"`
	Leave  *Leave      `json:"leave,omitempty"`
	Lock   *SlotAction `json:"lock,omitempty"`
	Unlock *SlotAction `json:"unlock,omitempty"`
}

type Join struct {
	ResourceID string `json:"resource_id"`
}

type Leave struct {
	ResourceID string `json:"resource_id"`
}

type SlotAction struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

func (a *SlotAction) Slot() model.Slot {
	return model.Slot{
		ResourceID: a.ResourceID,
		StartTime:  a.StartTime.UTC(),
		EndTime:    a.EndTime.UTC(),
	}
}

// ServerMessage is either a reply to a ClientMessage or a pushed event.
type ServerMessage struct {
	ID        int          `json:"id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Response  *Response    `json:"response,omitempty"`
	Event     *model.Event `json:"event,omitempty"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

func EventMessage(evt model.Event) *ServerMessage {
	return &ServerMessage{
		Timestamp: Now(),
		Event:     &evt,
	}
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return reply(id, http.StatusOK, "", data)
}

func ErrInvalidMessage(id int, reason string) *ServerMessage {
	return reply(id, http.StatusBadRequest, reason, nil)
}

func ErrResourceNotFound(id int) *ServerMessage {
	return reply(id, http.StatusNotFound, "resource not found", nil)
}

func ErrNotSubscribed(id int) *ServerMessage {
	return reply(id, http.StatusConflict, "join the resource first", nil)
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return reply(id, http.StatusServiceUnavailable, "service unavailable", nil)
}

func ErrInternalError(id int) *ServerMessage {
	return reply(id, http.StatusInternalServerError, "internal server error", nil)
}

func reply(id, code int, errMsg string, data map[string]any) *ServerMessage {
	return &ServerMessage{
		ID:        id,
		Timestamp: Now(),
		Response: &Response{
			ResponseCode: code,
			Error:        errMsg,
			Data:         data,
		},
	}
}
