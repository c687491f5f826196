package llm

import (
	"context"
	"encoding/base64"

	"github.com/ternarybob/kraig/internal/interfaces"
)

// ChatService adapts the provider factory to the LLMService interface
// using the configured default provider and model.
type ChatService struct {
	factory *ProviderFactory
}

// NewChatService creates a chat service backed by the factory's
// default provider.
func NewChatService(factory *ProviderFactory) *ChatService {
	return &ChatService{factory: factory}
}

// Chat generates a completion for the conversation history.
func (s *ChatService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Close releases provider resources.
func (s *ChatService) Close() error {
	return s.factory.Close()
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
