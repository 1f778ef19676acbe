package manager

import "strings"

// ChatML markers understood by most chat-tuned GGUF models.
const (
	imStart = "<|im_start|>"
	imEnd   = "<|im_end|>"
)

// chatStopWords end generation at the close of the assistant turn.
var chatStopWords = []string{imEnd, "</s>"}

// formatChatML renders the system preamble and turns, leaving the prompt
// open for the assistant's reply.
func formatChatML(system string, turns []Turn) string {
	var b strings.Builder
	if system != "" {
		writeChatMLTurn(&b, RoleSystem, system)
	}
	for _, t := range turns {
		writeChatMLTurn(&b, t.Role, t.Text)
	}
	b.WriteString(imStart)
	b.WriteString(RoleAssistant)
	b.WriteByte('\n')
	return b.String()
}

func writeChatMLTurn(b *strings.Builder, role, text string) {
	b.WriteString(imStart)
	b.WriteString(role)
	b.WriteByte('\n')
	b.WriteString(text)
	b.WriteString(imEnd)
	b.WriteByte('\n')
}

// mergeStop appends the chat stop words not already present in stop.
func mergeStop(stop []string) []string {
	out := append([]string(nil), stop...)
	for _, w := range chatStopWords {
		found := false
		for _, s := range out {
			if s == w {
				found = true
				break
			}
		}
		if !found {
			out = append(out, w)
		}
	}
	return out
}
