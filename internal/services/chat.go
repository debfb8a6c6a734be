package services

import (
	"context"
	"log"
	"time"

	"helicone-chat/internal/config"
)

const echoPrefix = "Echo: "

type Mode string

const (
	ModeEcho    Mode = "echo"
	ModeForward Mode = "forward"
)

type ChatService struct {
	client  CompletionClient
	mode    Mode
	timeout time.Duration
}

// NewChatService picks the reply mode once. Forwarding needs both a
// completion key in cfg and a non-nil client; anything else echoes.
func NewChatService(cfg *config.Config, client CompletionClient) *ChatService {
	s := &ChatService{
		client:  client,
		mode:    ModeEcho,
		timeout: cfg.RequestTimeout,
	}

	switch {
	case cfg.ForwardingEnabled() && client != nil:
		s.mode = ModeForward
	case cfg.ForwardingEnabled():
		log.Println("⚠ OPENAI_API_KEY is set but no completion client is available, falling back to echo mode")
		s.client = nil
	default:
		s.client = nil
	}

	return s
}

func (s *ChatService) Mode() Mode {
	return s.mode
}

// Reply answers a single chat message.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	if s.mode == ModeEcho {
		return echoPrefix + message, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	content, err := s.client.Complete(ctx, message)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	return content, nil
}
