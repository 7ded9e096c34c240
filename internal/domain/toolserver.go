package domain

import "time"

// ToolServer is a linked external tool server. Linking only records the
// endpoint; the gateway does not speak the server's protocol itself.
type ToolServer struct {
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers,omitempty"`
	LinkedAt time.Time         `json:"linked_at"`
}

// ToolServerLink is the request payload for linking a server.
type ToolServerLink struct {
	Name    string            `json:"name" validate:"required,max=64"`
	URL     string            `json:"url" validate:"required,url"`
	Headers map[string]string `json:"headers,omitempty"`
}
