package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrostack/kisanqa-go/internal/domain/ports"
)

// AugmentUseCase produces the optional "online answer": the retrieved
// offline context rephrased and extended by a language model.
type AugmentUseCase struct {
	llm ports.LLMService
}

// NewAugmentUseCase creates an AugmentUseCase with an injected LLM service.
func NewAugmentUseCase(llm ports.LLMService) *AugmentUseCase {
	return &AugmentUseCase{llm: llm}
}

// Augment asks the model for a concise reply grounded in the offline
// context. The offline context is consumed as an opaque string; the model
// output is returned verbatim, trimmed.
func (uc *AugmentUseCase) Augment(ctx context.Context, query, offlineContext string) (string, error) {
	prompt := buildAugmentPrompt(query, offlineContext)
	answer, err := uc.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating online answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// buildAugmentPrompt frames the model as an agricultural expert working from
// reference answers in the knowledge base.
func buildAugmentPrompt(query, offlineContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an agricultural expert helping Indian farmers. ")
	sb.WriteString("Use the following reference answers from the Kisan Call Centre database ")
	sb.WriteString("to give a clear, helpful reply. If the reference does not cover the ")
	sb.WriteString("question, say so and give brief general advice.\n\n")
	sb.WriteString("Reference answers from database:\n")
	sb.WriteString(offlineContext)
	sb.WriteString("\n\nFarmer's question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nProvide a concise, actionable answer in plain language:")
	return sb.String()
}
