package parser

import (
	"testing"
)

func TestSplit_BothSections(t *testing.T) {
	full := "### Talking Points\n- A\n- B\n### Example Answer\nDone."
	got := Split(full)

	if got.TalkingPoints != "- A\n- B" {
		t.Errorf("TalkingPoints = %q", got.TalkingPoints)
	}
	if got.ExampleAnswer != "Done." {
		t.Errorf("ExampleAnswer = %q", got.ExampleAnswer)
	}
}

func TestSplit_OnlyTalkingPoints(t *testing.T) {
	got := Split("### Talking Points\n- A")

	if got.TalkingPoints != "- A" {
		t.Errorf("TalkingPoints = %q", got.TalkingPoints)
	}
	if got.ExampleAnswer != "" {
		t.Errorf("ExampleAnswer = %q, want empty", got.ExampleAnswer)
	}
}

func TestSplit_NoMarkersYet(t *testing.T) {
	got := Split("thinking out lou")

	if got.TalkingPoints != "thinking out lou" {
		t.Errorf("TalkingPoints = %q", got.TalkingPoints)
	}
	if got.ExampleAnswer != "" {
		t.Errorf("ExampleAnswer = %q, want empty", got.ExampleAnswer)
	}
}

func TestSplit_TextBeforeFirstMarker(t *testing.T) {
	// Content before the talking-points marker belongs to section 1 when
	// the example-answer marker is present
	got := Split("preamble\n### Example Answer\nDone.")

	if got.TalkingPoints != "preamble" {
		t.Errorf("TalkingPoints = %q", got.TalkingPoints)
	}
	if got.ExampleAnswer != "Done." {
		t.Errorf("ExampleAnswer = %q", got.ExampleAnswer)
	}
}

// Feeding S through the parser in arbitrarily many chunk boundaries must
// yield the same split as one shot.
func TestStream_IdempotentReparse(t *testing.T) {
	full := "### Talking Points\n- mention **Go**\n- quantify impact\n### Example Answer\nIn my last role I led a migration."
	want := Split(full)

	boundaries := [][]int{
		{1},
		{5, 9},
		{17, 18, 19},
		{len(full) / 2},
		{10, 20, 30, 40, 50, 60},
	}

	for _, cuts := range boundaries {
		s := NewStream()
		var last Sections
		prev := 0
		for _, cut := range cuts {
			if cut > len(full) {
				cut = len(full)
			}
			last = s.Feed(full[prev:cut])
			prev = cut
		}
		last = s.Feed(full[prev:])

		if last != want {
			t.Errorf("Chunking %v changed the split: got %+v, want %+v", cuts, last, want)
		}
	}
}

func TestStream_ScenarioTwoChunks(t *testing.T) {
	s := NewStream()

	first := s.Feed("### Talking Points\n- A")
	if first.TalkingPoints != "- A" || first.ExampleAnswer != "" {
		t.Errorf("After first chunk: %+v", first)
	}

	second := s.Feed("\n### Example Answer\nDone.")
	if second.TalkingPoints != "- A" || second.ExampleAnswer != "Done." {
		t.Errorf("After second chunk: %+v", second)
	}
}

func TestStream_ErrorSentinelStopsAccumulation(t *testing.T) {
	s := NewStream()

	got := s.Feed("Rate limit exceeded. Please try again later.")
	if !s.Failed() {
		t.Fatal("Expected stream marked failed")
	}
	if !s.RateLimited() {
		t.Error("Expected rate-limit classification")
	}
	if got.TalkingPoints != "Rate limit exceeded. Please try again later." {
		t.Errorf("Expected sentinel surfaced as content, got %q", got.TalkingPoints)
	}

	// Further chunks are ignored
	after := s.Feed("### Talking Points\n- late")
	if after.TalkingPoints != "Rate limit exceeded. Please try again later." {
		t.Errorf("Accumulation continued after failure: %+v", after)
	}
}

func TestStream_NonRateLimitSentinel(t *testing.T) {
	s := NewStream()

	s.Feed("An unexpected error occurred on the server.")
	if !s.Failed() {
		t.Fatal("Expected stream marked failed")
	}
	if s.RateLimited() {
		t.Error("Generic server error must not classify as rate limiting")
	}
}

func TestStream_MidStreamSentinelFailsResponse(t *testing.T) {
	s := NewStream()

	// The backend writes the error message in-band, even after partial
	// content has already streamed.
	s.Feed("### Talking Points\n- partial point\n")
	got := s.Feed("Rate limit exceeded. Please try again later.")

	if !s.Failed() {
		t.Fatal("Expected mid-stream sentinel to fail the response")
	}
	if !s.RateLimited() {
		t.Error("Expected rate-limit classification")
	}
	if got.TalkingPoints != "Rate limit exceeded. Please try again later." {
		t.Errorf("Expected sentinel surfaced as content, got %q", got.TalkingPoints)
	}
}

func TestStream_ErrorMentionIsNotASentinel(t *testing.T) {
	s := NewStream()

	// A legitimate response that merely mentions an error phrase mid-stream
	s.Feed("### Talking Points\n- explain how you handled ")
	got := s.Feed("rate limit exceeded incidents in production")

	if s.Failed() {
		t.Error("Prose mentioning an error phrase must not be treated as a sentinel")
	}
	if got.TalkingPoints == "" {
		t.Error("Expected accumulated talking points")
	}
}

func TestMatchSentinel_CaseInsensitivePrefix(t *testing.T) {
	tests := []struct {
		chunk       string
		ok          bool
		rateLimited bool
	}{
		{"RATE LIMIT EXCEEDED. Please try again later.", true, true},
		{"Batas permintaan tercapai. Silakan coba lagi nanti.", true, true},
		{"Server Configuration Error: The API Key is not valid.", true, false},
		{"Kesalahan Konfigurasi Server: Kunci API tidak valid.", true, false},
		{"Error: Could not connect to the backend server.", true, false},
		{"Rate limit exceeded incidents are common at scale.", false, false},
		{"### Talking Points", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		_, rateLimited, ok := MatchSentinel(tt.chunk)
		if ok != tt.ok || rateLimited != tt.rateLimited {
			t.Errorf("MatchSentinel(%q) = (%v, %v), want (%v, %v)",
				tt.chunk, ok, rateLimited, tt.ok, tt.rateLimited)
		}
	}
}
