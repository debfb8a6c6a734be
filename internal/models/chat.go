package models

// ChatRequest is the payload sent to the chat endpoint.
// Message is a pointer so a missing field can be told apart from an empty one.
type ChatRequest struct {
	Message *string `json:"message" validate:"required"`
}

// ChatResponse is the reply from the chat endpoint.
type ChatResponse struct {
	Reply string `json:"reply"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}
