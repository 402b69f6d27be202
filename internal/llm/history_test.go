package llm

import (
	"strings"
	"testing"

	"github.com/candidai/interview-gateway/internal/model"
)

func TestHistoryFromConversation_Practice(t *testing.T) {
	items := []model.ConversationItem{
		{Role: model.RoleModel, Text: "Tell me about yourself."},
		{Role: model.RoleUser, Text: "I am a Go developer."},
		{
			Role:     model.RoleModel,
			Text:     "What is your biggest weakness?",
			Feedback: "Good structure, add metrics.",
			Rating:   model.RatingGood,
		},
	}

	history := HistoryFromConversation(items, model.ModePractice, "en")

	if len(history) != 3 {
		t.Fatalf("Expected 3 turns, got %d", len(history))
	}
	if history[0].Role != "model" || history[1].Role != "user" || history[2].Role != "model" {
		t.Errorf("Unexpected role sequence: %s, %s, %s", history[0].Role, history[1].Role, history[2].Role)
	}

	// A feedback-bearing turn is rejoined into the original three-section form.
	want := "Good structure, add metrics.\n---\nGood\n---\nWhat is your biggest weakness?"
	if got := history[2].Parts[0].Text; got != want {
		t.Errorf("Expected rejoined turn %q, got %q", want, got)
	}
}

func TestHistoryFromConversation_Copilot(t *testing.T) {
	items := []model.ConversationItem{
		{Role: model.RoleModel, Text: "Why do you want this job?"},
		{Role: model.RoleUser, Text: "- Passion for the product", Kind: model.KindTalkingPoints},
		{Role: model.RoleUser, Text: "I want this job because...", Kind: model.KindExampleAnswer},
	}

	history := HistoryFromConversation(items, model.ModeCopilot, "en")

	if len(history) != 3 {
		t.Fatalf("Expected 3 turns, got %d", len(history))
	}

	// Copilot roles invert on the wire: the interviewer's question becomes
	// the user turn, suggestions become model turns.
	if history[0].Role != "user" {
		t.Errorf("Expected question as user turn, got role %s", history[0].Role)
	}
	if !strings.Contains(history[0].Parts[0].Text, "Why do you want this job?") {
		t.Errorf("Expected question embedded in user turn, got %q", history[0].Parts[0].Text)
	}
	if history[1].Role != "model" || !strings.HasPrefix(history[1].Parts[0].Text, "### Talking Points") {
		t.Errorf("Expected talking points model turn, got role %s text %q", history[1].Role, history[1].Parts[0].Text)
	}
	if !strings.HasPrefix(history[2].Parts[0].Text, "### Example Answer") {
		t.Errorf("Expected example answer marker, got %q", history[2].Parts[0].Text)
	}
}

func TestHistoryFromConversation_Deterministic(t *testing.T) {
	items := []model.ConversationItem{
		{Role: model.RoleModel, Text: "Q1"},
		{Role: model.RoleUser, Text: "A1"},
	}

	first := HistoryFromConversation(items, model.ModePractice, "en")
	second := HistoryFromConversation(items, model.ModePractice, "en")

	if len(first) != len(second) {
		t.Fatalf("Length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Role != second[i].Role || first[i].Parts[0].Text != second[i].Parts[0].Text {
			t.Errorf("Turn %d differs between runs", i)
		}
	}
}

func TestPrompts_LanguageSelection(t *testing.T) {
	en := testContext()
	id := en
	id.Lang = "id"

	if !strings.Contains(copilotSystemInstruction(en), "### Talking Points") {
		t.Error("Expected English copilot instruction to require the section markers")
	}
	if !strings.Contains(copilotSystemInstruction(id), "Bahasa Indonesia") {
		t.Error("Expected Indonesian copilot instruction to demand Indonesian output")
	}
	if !strings.Contains(practiceSystemInstruction(id), "'Perlu Peningkatan', 'Baik', atau 'Luar Biasa'") {
		t.Error("Expected Indonesian rating vocabulary in the practice instruction")
	}
	if !strings.Contains(practiceSystemInstruction(en), "'Needs Improvement', 'Good', or 'Excellent'") {
		t.Error("Expected English rating vocabulary in the practice instruction")
	}
}

func TestPrompts_CVBlock(t *testing.T) {
	withCV := testContext()
	if !strings.Contains(copilotSystemInstruction(withCV), "--- CV START ---") {
		t.Error("Expected CV block when a CV is provided")
	}

	noCV := withCV
	noCV.CVContent = ""
	instruction := copilotSystemInstruction(noCV)
	if strings.Contains(instruction, "--- CV START ---") {
		t.Error("Expected no CV block without a CV")
	}
	if !strings.Contains(instruction, "No CV was provided") {
		t.Error("Expected the no-CV fallback text")
	}
}

func TestSummaryTranscript_PracticeLabels(t *testing.T) {
	items := []model.ConversationItem{
		{Role: model.RoleModel, Text: "Q1"},
		{Role: model.RoleUser, Text: "A1"},
		{Role: model.RoleModel, Text: "Q2", Feedback: "Quantify it.", Rating: model.RatingExcellent},
	}

	transcript := summaryTranscript(items, model.ModePractice, "en")

	for _, want := range []string{
		"AI Interviewer: Q1",
		"Your Answer: A1",
		"AI Feedback (Rating: Excellent): Quantify it.",
	} {
		if !strings.Contains(transcript, want) {
			t.Errorf("Expected transcript to contain %q, got:\n%s", want, transcript)
		}
	}
}
