package llm

import "encoding/json"

// Gemini API request format. The API uses camelCase JSON field names.
type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Tools             []geminiTool     `json:"tools,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiTool struct {
	GoogleSearch *geminiGoogleSearch `json:"googleSearch,omitempty"`
}

type geminiGoogleSearch struct{}

type geminiGenConfig struct {
	ResponseMIMEType string                `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage       `json:"responseSchema,omitempty"`
	ThinkingConfig   *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiThinkingConfig struct {
	ThinkingBudget *int `json:"thinkingBudget,omitempty"`
}

func intPtr(v int) *int { return &v }

func textContent(role, text string) geminiContent {
	return geminiContent{Role: role, Parts: []geminiPart{{Text: text}}}
}

func systemInstruction(text string) *geminiContent {
	c := geminiContent{Parts: []geminiPart{{Text: text}}}
	return &c
}

// The interactive flows run without a thinking budget so first tokens
// arrive as fast as possible.
func noThinking() *geminiGenConfig {
	return &geminiGenConfig{ThinkingConfig: &geminiThinkingConfig{ThinkingBudget: intPtr(0)}}
}
