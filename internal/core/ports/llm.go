package ports

import "context"

// LLM generates a completion for a prompt.
//
//go:generate mockgen -source=llm.go -destination=mocks/mock_llm.go -package=mocks
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
