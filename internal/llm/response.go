package llm

// Gemini API response format for generateContent and its streaming variant.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content           geminiContent          `json:"content"`
	FinishReason      string                 `json:"finishReason,omitempty"`
	GroundingMetadata *geminiGroundingMeta   `json:"groundingMetadata,omitempty"`
}

type geminiGroundingMeta struct {
	GroundingChunks []geminiGroundingChunk `json:"groundingChunks,omitempty"`
}

type geminiGroundingChunk struct {
	Web *geminiWebSource `json:"web,omitempty"`
}

type geminiWebSource struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// candidateText concatenates the text parts of the first candidate.
func (r *geminiResponse) candidateText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, part := range r.Candidates[0].Content.Parts {
		out += part.Text
	}
	return out
}
