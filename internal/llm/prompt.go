package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/toladipo/docbrief/internal/form"
)

const maxContextChars = 12000

// BuildSystemPrompt frames the task: answer each question from the supplied
// excerpts only, with the Nil sentinel for anything the documents do not say.
func BuildSystemPrompt() string {
	parts := []string{
		"You fill in form fields from document excerpts. Return ONLY JSON that matches the JSON Schema provided.",
		"Answer every question using only the information in the excerpts.",
		"If the excerpts do not contain the answer, the value must be exactly \"" + form.Nil + "\".",
		"Answers are plain strings. Never output null, never invent information.",
		"For list-valued questions, separate items with commas.",
		"For person or contact questions, answer as 'Name (email)' when an email is present, otherwise just the name.",
		"Use ISO-8601 dates (YYYY-MM-DD) where a date is asked for.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt renders the context block and the batch's questions. The
// context is truncated rather than rejected: a partial context still answers
// most fields and the rest come back as Nil.
func BuildUserPrompt(contextBlock string, fields []form.FlatField) string {
	if len(contextBlock) > maxContextChars {
		// Back up to a rune boundary so the cut never emits invalid UTF-8.
		cut := maxContextChars
		for cut > 0 && !utf8.RuneStart(contextBlock[cut]) {
			cut--
		}
		contextBlock = contextBlock[:cut]
	}
	var b strings.Builder
	b.WriteString("Document excerpts:\n")
	if contextBlock == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(contextBlock)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestions (answer each under its exact key):\n")
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. %q: %s\n", i+1, f.Name, f.Prompt)
	}
	return b.String()
}
