package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"helicone-chat/internal/models"
	"helicone-chat/internal/services"
)

type chatService interface {
	Reply(ctx context.Context, message string) (string, error)
}

type ChatHandler struct {
	chatService chatService
	validate    *validator.Validate
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Chat handles POST /chat. The message may be empty but must be present.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	// body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		handleServiceError(w, r, toValidationError(err))
		return
	}

	reply, err := h.chatService.Reply(r.Context(), *req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "field required"
		default:
			fields[name] = "invalid value"
		}
	}
	return &services.ValidationError{Fields: fields}
}
