// internal/server/handlers/assist.go

package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"hershield/internal/service/assist"
)

// AssistHandler proxies chat messages to the assistant service
type AssistHandler struct {
	service *assist.Service
}

// NewAssistHandler creates a new assist handler
func NewAssistHandler(service *assist.Service) *AssistHandler {
	return &AssistHandler{
		service: service,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat forwards a message to the text-completion service
func (h *AssistHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	text, err := h.service.Complete(r.Context(), req.Message)
	if err != nil {
		log.Printf("Error calling completion API: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to process your request")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": text})
}
