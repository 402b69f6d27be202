package transcript

import (
	"strings"
	"sync"
	"testing"
)

func TestAggregator_InterimDoesNotPersist(t *testing.T) {
	agg := NewAggregator()

	agg.Apply(Event{Text: "tell me", IsFinal: false})
	if got := agg.CurrentQuestion(); got != "" {
		t.Errorf("Expected empty question after interim, got %q", got)
	}
	if got := agg.DisplayText(); got != "tell me" {
		t.Errorf("Expected display 'tell me', got %q", got)
	}
}

func TestAggregator_FinalAppendsWithSpace(t *testing.T) {
	agg := NewAggregator()

	agg.Apply(Event{Text: "Tell me about", IsFinal: true})
	agg.Apply(Event{Text: "yourself", IsFinal: true})

	if got := agg.CurrentQuestion(); got != "Tell me about yourself" {
		t.Errorf("Expected 'Tell me about yourself', got %q", got)
	}
}

func TestAggregator_FinalClearsLive(t *testing.T) {
	agg := NewAggregator()

	agg.Apply(Event{Text: "tell me ab", IsFinal: false})
	agg.Apply(Event{Text: "Tell me about yourself", IsFinal: true})

	if got := agg.DisplayText(); got != "Tell me about yourself" {
		t.Errorf("Expected display without interim remnant, got %q", got)
	}
}

func TestAggregator_EmptyFinalIgnored(t *testing.T) {
	agg := NewAggregator()

	if grew := agg.Apply(Event{Text: "   ", IsFinal: true}); grew {
		t.Error("Expected whitespace-only final fragment to be ignored")
	}
}

func TestAggregator_ConsumeClearsBoth(t *testing.T) {
	agg := NewAggregator()

	agg.Apply(Event{Text: "What is your greatest strength", IsFinal: true})
	agg.Apply(Event{Text: "and weak", IsFinal: false})

	question := agg.Consume()
	if question != "What is your greatest strength" {
		t.Errorf("Unexpected consumed question %q", question)
	}
	if agg.CurrentQuestion() != "" || agg.DisplayText() != "" {
		t.Error("Expected both buffers cleared after consume")
	}
}

func TestAggregator_GrowthSignal(t *testing.T) {
	agg := NewAggregator()

	if grew := agg.Apply(Event{Text: "interim", IsFinal: false}); grew {
		t.Error("Interim event must not report growth")
	}
	if grew := agg.Apply(Event{Text: "final", IsFinal: true}); !grew {
		t.Error("Final event must report growth")
	}
}

func TestAggregator_ConcurrentApplyAndConsume(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Apply(Event{Text: "word", IsFinal: true})
		}()
	}
	wg.Wait()

	// Every fragment must land exactly once across the consume boundary
	question := agg.Consume()
	count := 0
	for _, w := range strings.Fields(question) {
		if w == "word" {
			count++
		}
	}
	if count != 50 {
		t.Errorf("Expected 50 fragments, got %d", count)
	}
}
