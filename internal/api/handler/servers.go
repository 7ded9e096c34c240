package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nvoss/toolgate/internal/api/response"
	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/service"
)

// ServersHandler manages the linked tool server registry.
type ServersHandler struct {
	registry *service.Registry
}

// NewServersHandler creates a new servers handler
func NewServersHandler(registry *service.Registry) *ServersHandler {
	return &ServersHandler{registry: registry}
}

// Link registers a new tool server endpoint.
func (h *ServersHandler) Link(w http.ResponseWriter, r *http.Request) {
	var input domain.ToolServerLink
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	server, err := h.registry.Link(input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, server)
}

// List returns all linked tool servers.
func (h *ServersHandler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"linked_servers": h.registry.List(),
	})
}

// Unlink removes a linked tool server.
func (h *ServersHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.registry.Unlink(name); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
