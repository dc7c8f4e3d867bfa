// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/bartekus/vetgate/internal/config"
)

// ChatModel is the slice of an eino chat model the client needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewChatModel builds the chat model selected by the policy. Construction
// does not contact the service. The per-attempt deadline is applied by the
// Client through the request context.
func NewChatModel(ctx context.Context, cfg config.CompletionPolicy) (ChatModel, error) {
	switch cfg.Provider {
	case "ollama":
		m, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating ollama model: %w", err)
		}
		return m, nil
	case "openai":
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.Endpoint,
			APIKey:  os.Getenv(cfg.APIKeyEnv),
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", cfg.Provider)
	}
}
