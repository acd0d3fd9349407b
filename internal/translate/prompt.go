package translate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You translate personal and organisation names into English.
Reply with the English rendering of the name only: no quotes, no explanation, no alternatives.
Keep the original order of family and given names.
If the name has no English form, transliterate it.`

// BuildPrompt returns the system and user prompts used by the LLM providers.
func BuildPrompt(text, sourceLang string) (string, string) {
	if sourceLang == "" {
		return systemPrompt, fmt.Sprintf("Name: %s", text)
	}
	return systemPrompt, fmt.Sprintf("Source language: %s\nName: %s", sourceLang, text)
}

// cleanCompletion strips wrapping quotes and keeps the first line of a
// model reply.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), "\"'`")
}
