package service

import (
	"strings"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

const promptTemplate = `Answer the question using ONLY the following context and not your training data.
If you don't know the answer just say you don't know. DON'T make anything up.

Context: {context}
Question: {question}`

// FormatDocs joins retrieved chunk texts with a blank line.
func FormatDocs(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}

// BuildPrompt fills the answer template. Values are inserted verbatim.
func BuildPrompt(context, question string) string {
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(promptTemplate)
}
