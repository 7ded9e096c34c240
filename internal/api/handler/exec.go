package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nvoss/toolgate/internal/api/response"
	"github.com/nvoss/toolgate/internal/sandbox"
	"github.com/rs/zerolog/log"
)

// ExecHandler runs allow-listed read-only commands in the sandbox.
type ExecHandler struct {
	runner *sandbox.Runner
}

// NewExecHandler creates a new exec handler
func NewExecHandler(runner *sandbox.Runner) *ExecHandler {
	return &ExecHandler{runner: runner}
}

type execRequest struct {
	Command string `json:"command" validate:"required"`
}

// Run executes the requested command and returns its output as plain
// text. Failures are plain text too, carrying the mapped status.
func (h *ExecHandler) Run(w http.ResponseWriter, r *http.Request) {
	var input execRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, "command is required")
		return
	}

	output, err := h.runner.Run(input.Command)
	if err != nil {
		status := response.StatusOf(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("command execution failed")
			message = "internal server error"
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(message))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(output))
}
