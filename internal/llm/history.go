package llm

import (
	"fmt"

	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/parser"
)

// HistoryFromConversation rebuilds the chat history the backend saw from the
// persisted conversation log. The mapping is deterministic: resuming a
// snapshot produces the same request contents as the original session did,
// so the model continues from an equivalent conversation.
func HistoryFromConversation(items []model.ConversationItem, mode model.Mode, lang string) []geminiContent {
	if mode == model.ModePractice {
		return practiceHistory(items)
	}
	return copilotHistory(items, lang)
}

// practiceHistory maps the log back to the raw chat turns. A model item
// carrying feedback was originally one three-section response, so the
// sections are rejoined with the separator the model emitted.
func practiceHistory(items []model.ConversationItem) []geminiContent {
	history := make([]geminiContent, 0, len(items))
	for _, item := range items {
		switch item.Role {
		case model.RoleUser:
			history = append(history, textContent("user", item.Text))
		case model.RoleModel:
			text := item.Text
			if item.Feedback != "" {
				text = fmt.Sprintf("%s\n---\n%s\n---\n%s", item.Feedback, item.Rating, item.Text)
			}
			history = append(history, textContent("model", text))
		}
	}
	return history
}

// copilotHistory inverts the copilot log convention: model items hold the
// interviewer's transcribed questions (they become user turns on the wire)
// and user items hold the generated suggestions (they become model turns,
// re-wrapped under their section marker).
func copilotHistory(items []model.ConversationItem, lang string) []geminiContent {
	history := make([]geminiContent, 0, len(items))
	for _, item := range items {
		switch item.Role {
		case model.RoleModel:
			history = append(history, textContent("user", copilotUserMessage(item.Text, lang)))
		case model.RoleUser:
			marker := parser.TalkingPointsMarker
			if item.Kind == model.KindExampleAnswer {
				marker = parser.ExampleAnswerMarker
			}
			history = append(history, textContent("model", fmt.Sprintf("%s\n%s", marker, item.Text)))
		}
	}
	return history
}
