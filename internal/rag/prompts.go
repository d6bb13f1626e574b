package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"medical-chatbot/internal/models"
)

var (
	generalPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(models.GeneralSystemPrompt, nil),
		prompts.NewHumanMessagePromptTemplate(models.GeneralUserPrompt, []string{"question"}),
	})

	contextPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(models.ContextSystemPrompt, []string{"context"}),
		prompts.NewHumanMessagePromptTemplate(models.ContextUserPrompt, []string{"question"}),
	})

	summaryPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(models.SummarySystemPrompt, nil),
		prompts.NewHumanMessagePromptTemplate(models.SummaryUserPrompt, []string{"cases"}),
	})
)

func renderGeneral(question string) ([]llms.MessageContent, error) {
	return render(generalPrompt, map[string]any{"question": question})
}

func renderContext(context, question string) ([]llms.MessageContent, error) {
	return render(contextPrompt, map[string]any{"context": context, "question": question})
}

func renderSummary(titles []string) ([]llms.MessageContent, error) {
	return render(summaryPrompt, map[string]any{"cases": bulletList(titles)})
}

func render(tmpl prompts.ChatPromptTemplate, values map[string]any) ([]llms.MessageContent, error) {
	msgs, err := tmpl.FormatMessages(values)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}
	content := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		content = append(content, llms.TextParts(m.GetType(), m.GetContent()))
	}
	return content, nil
}

// buildContext joins the non-blank retrieved chunks. An empty result means
// there is no usable context.
func buildContext(chunks []models.ScoredChunk) string {
	var parts []string
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, models.ContextSeparator)
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = models.SummaryCaseTitlesBullet + item
	}
	return strings.Join(lines, "\n")
}
