// Package highlight renders annotated character ranges over a raw string as a
// contiguous sequence of display segments.
package highlight

import (
	"sort"

	"github.com/wimarka-uic/lakra/internal/models"
)

// Segment is one contiguous piece of the rendered text. Highlighted segments
// carry the error type and comment of the highlight that produced them.
type Segment struct {
	Text        string           `json:"text"`
	Highlighted bool             `json:"highlighted"`
	ErrorType   models.ErrorType `json:"error_type,omitempty"`
	Label       string           `json:"label,omitempty"`
	Style       string           `json:"style,omitempty"`
	Comment     string           `json:"comment,omitempty"`
}

// Render tiles text with the highlights matching textType. The result covers
// the input exactly once: segments concatenate back to text, with no gaps and
// no double coverage. Overlapping highlights are resolved in ascending start
// order, truncating a later-starting highlight against the earlier one's end.
func Render(text string, highlights []models.TextHighlight, textType string) []Segment {
	relevant := make([]models.TextHighlight, 0, len(highlights))
	for _, h := range highlights {
		if h.TextType == textType {
			relevant = append(relevant, h)
		}
	}

	if len(relevant) == 0 {
		return []Segment{{Text: text}}
	}

	valid := relevant[:0]
	for _, h := range relevant {
		if h.StartIndex >= 0 && h.EndIndex <= len(text) && h.StartIndex < h.EndIndex {
			valid = append(valid, h)
		}
	}
	if len(valid) == 0 {
		return []Segment{{Text: text}}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].StartIndex < valid[j].StartIndex
	})

	var segments []Segment
	cursor := 0

	for _, h := range valid {
		start := h.StartIndex
		if start < cursor {
			start = cursor
		}
		end := h.EndIndex
		if end > len(text) {
			end = len(text)
		}
		// Fully consumed by an earlier overlapping highlight.
		if start >= end {
			continue
		}

		if start > cursor {
			segments = append(segments, Segment{Text: text[cursor:start]})
		}

		errType := h.ErrorType
		if errType == "" {
			errType = models.MinorSyntactic
		}
		segments = append(segments, Segment{
			Text:        text[start:end],
			Highlighted: true,
			ErrorType:   errType,
			Label:       errType.Label(),
			Style:       errType.Style(),
			Comment:     h.Comment,
		})

		cursor = end
	}

	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}

	return segments
}
