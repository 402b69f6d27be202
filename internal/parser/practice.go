package parser

import (
	"strings"

	"github.com/candidai/interview-gateway/internal/model"
)

// PracticeTurn is one parsed response from the practice interviewer: the
// coach's feedback on the previous answer, a rating, and the next question.
// The first turn carries only the opening question.
type PracticeTurn struct {
	Feedback string
	Rating   model.Rating
	Question string
}

// Indonesian rating labels map onto the canonical grades
var ratingAliases = map[string]model.Rating{
	"needs improvement": model.RatingNeedsImprovement,
	"perlu peningkatan": model.RatingNeedsImprovement,
	"good":              model.RatingGood,
	"baik":              model.RatingGood,
	"excellent":         model.RatingExcellent,
	"luar biasa":        model.RatingExcellent,
}

// ParsePracticeTurn splits a practice response on its '---' separators.
// One section means an opening question; three (or more) mean
// feedback / rating / next question. A malformed or partial response
// degrades to treating the whole text as the question, never an error.
func ParsePracticeTurn(text string) PracticeTurn {
	sections := splitSeparated(text)

	switch len(sections) {
	case 0:
		return PracticeTurn{}
	case 1:
		return PracticeTurn{Question: sections[0]}
	case 2:
		// Separator arrived but the rating section is still streaming in;
		// show what we have.
		return PracticeTurn{Feedback: sections[0], Question: sections[1]}
	default:
		turn := PracticeTurn{
			Feedback: sections[0],
			Question: strings.Join(sections[2:], "\n"),
		}
		if r, ok := ratingAliases[strings.ToLower(sections[1])]; ok {
			turn.Rating = r
		}
		return turn
	}
}

// splitSeparated splits on lines consisting solely of '---', trimming each
// section and dropping empties.
func splitSeparated(text string) []string {
	var sections []string
	var current []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if joined != "" {
			sections = append(sections, joined)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return sections
}
