package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWatches CommandType = "LIST_WATCHES"
	CommandListWishes  CommandType = "LIST_WISHES"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Initialized   bool     `json:"initialized"`
	Pending       []string `json:"pending,omitempty"`
	WindowCount   int      `json:"window_count"`
	WatchCount    int      `json:"watch_count"`
	AppCount      int      `json:"app_count"`
	WishCount     int      `json:"wish_count"`
	Sources       []string `json:"sources"`
	Reloads       int      `json:"reloads"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	DaemonRunning bool     `json:"daemon_running"`
}

// WatchInfo describes one live (window, wish) binding.
type WatchInfo struct {
	WindowID    uint32  `json:"window_id"`
	Title       string  `json:"title"`
	AppID       string  `json:"app_id"`
	AppName     string  `json:"app_name"`
	Wish        string  `json:"wish"`
	Rule        string  `json:"rule"`
	Accumulated float64 `json:"accumulated"`
}

// WatchesData represents the data returned by LIST_WATCHES
type WatchesData struct {
	Watches []WatchInfo `json:"watches"`
}

// WishInfo describes one loaded wish.
type WishInfo struct {
	App  string `json:"app"`
	Name string `json:"name"`
	Rule string `json:"rule"`
}

// WishesData represents the data returned by LIST_WISHES
type WishesData struct {
	Wishes []WishInfo `json:"wishes"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
