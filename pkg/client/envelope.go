package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Meta describes the origin of a request.
type Meta struct {
	RequestID string    `json:"request_id"`
	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is the request body sent to every webhook:
//
//	{"action": "search", "data": {...}, "meta": {"request_id": "...", "user_id": 1, "timestamp": "..."}}
type Envelope struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
	Meta   Meta   `json:"meta"`
}

// NewEnvelope builds an envelope with a fresh request id.
func NewEnvelope(action string, data any, userID int64) Envelope {
	return Envelope{
		Action: action,
		Data:   data,
		Meta: Meta{
			RequestID: uuid.NewString(),
			UserID:    userID,
			Timestamp: time.Now().UTC(),
		},
	}
}

// Response is a decoded webhook response.
type Response struct {
	// Success is false only when the envelope said so (never returned by Call)
	Success bool

	// Data is the "data" member of an envelope, or the whole body when the
	// body is not an object carrying one
	Data json.RawMessage

	// Message is the optional "message" member
	Message string

	// Raw is the complete body
	Raw json.RawMessage
}

// Decode unmarshals Data into dst.
func (r *Response) Decode(dst any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, dst)
}

// Get runs a gjson path against Data.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Data, path)
}

// parseResponse validates a 2xx body. A missing "success" member counts as
// success.
func parseResponse(webhook string, body []byte) (*Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ProtocolError{Webhook: webhook, Err: fmt.Errorf("invalid JSON (%d bytes)", len(body))}
	}

	root := gjson.ParseBytes(body)
	resp := &Response{Success: true, Data: body, Raw: body}

	if !root.IsObject() {
		return resp, nil
	}

	resp.Message = root.Get("message").String()
	if data := root.Get("data"); data.Exists() {
		resp.Data = json.RawMessage(data.Raw)
	}

	if success := root.Get("success"); success.Exists() && success.Type == gjson.False {
		resp.Success = false
		return resp, &ApplicationError{Webhook: webhook, Message: failureMessage(root)}
	}

	return resp, nil
}

// failureMessage extracts the message of a failed envelope from
// error.message, a string error, or message.
func failureMessage(root gjson.Result) string {
	errField := root.Get("error")
	switch {
	case errField.IsObject() && errField.Get("message").String() != "":
		return errField.Get("message").String()
	case errField.Type == gjson.String && errField.String() != "":
		return errField.String()
	case root.Get("message").String() != "":
		return root.Get("message").String()
	default:
		return "request failed"
	}
}
