package highlight

import (
	"testing"

	"github.com/wimarka-uic/lakra/internal/models"
)

func concat(segments []Segment) string {
	var out string
	for _, s := range segments {
		out += s.Text
	}
	return out
}

func TestRenderNoHighlights(t *testing.T) {
	segments := Render("Kumusta ka?", nil, models.TextMachine)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if segments[0].Text != "Kumusta ka?" || segments[0].Highlighted {
		t.Errorf("got %+v, want single unstyled segment", segments[0])
	}
}

func TestRenderFiltersByTextType(t *testing.T) {
	highlights := []models.TextHighlight{
		{StartIndex: 0, EndIndex: 3, TextType: models.TextReference, ErrorType: models.MinorSemantic},
	}
	segments := Render("abcdef", highlights, models.TextMachine)
	if len(segments) != 1 || segments[0].Highlighted {
		t.Errorf("reference highlight leaked into machine rendering: %+v", segments)
	}
}

func TestRenderOverlapClamping(t *testing.T) {
	text := "Hello world"
	highlights := []models.TextHighlight{
		{StartIndex: 0, EndIndex: 5, TextType: models.TextMachine, ErrorType: models.MinorSyntactic},
		{StartIndex: 3, EndIndex: 8, TextType: models.TextMachine, ErrorType: models.MajorSemantic},
	}

	segments := Render(text, highlights, models.TextMachine)
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segments), segments)
	}

	if segments[0].Text != "Hello" || segments[0].ErrorType != models.MinorSyntactic {
		t.Errorf("segment 0 = %+v, want \"Hello\" tagged MI_ST", segments[0])
	}
	// The second highlight's effective start is clamped to 5, not 3.
	if segments[1].Text != " wo" || segments[1].ErrorType != models.MajorSemantic {
		t.Errorf("segment 1 = %+v, want \" wo\" tagged MA_SE", segments[1])
	}
	if segments[2].Text != "rld" || segments[2].Highlighted {
		t.Errorf("segment 2 = %+v, want untagged \"rld\"", segments[2])
	}
}

func TestRenderDropsInvalidRanges(t *testing.T) {
	text := "short"
	highlights := []models.TextHighlight{
		{StartIndex: -1, EndIndex: 3, TextType: models.TextMachine},
		{StartIndex: 2, EndIndex: 100, TextType: models.TextMachine},
		{StartIndex: 4, EndIndex: 4, TextType: models.TextMachine},
		{StartIndex: 3, EndIndex: 1, TextType: models.TextMachine},
	}
	segments := Render(text, highlights, models.TextMachine)
	if len(segments) != 1 || segments[0].Text != text || segments[0].Highlighted {
		t.Errorf("invalid ranges should render as plain text, got %+v", segments)
	}
}

func TestRenderContainedHighlightConsumed(t *testing.T) {
	text := "abcdefghij"
	highlights := []models.TextHighlight{
		{StartIndex: 2, EndIndex: 8, TextType: models.TextMachine, ErrorType: models.MajorSyntactic},
		{StartIndex: 3, EndIndex: 6, TextType: models.TextMachine, ErrorType: models.MinorSemantic},
	}
	segments := Render(text, highlights, models.TextMachine)
	// The nested highlight is fully consumed by the earlier one.
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segments), segments)
	}
	if segments[1].Text != "cdefgh" || segments[1].ErrorType != models.MajorSyntactic {
		t.Errorf("segment 1 = %+v, want \"cdefgh\" tagged MA_ST", segments[1])
	}
}

func TestRenderTotality(t *testing.T) {
	text := "Ang bata ay naglalaro sa labas ng bahay."
	cases := [][]models.TextHighlight{
		nil,
		{{StartIndex: 0, EndIndex: 8, TextType: models.TextMachine, ErrorType: models.MinorSyntactic}},
		{
			{StartIndex: 4, EndIndex: 12, TextType: models.TextMachine, ErrorType: models.MajorSemantic},
			{StartIndex: 0, EndIndex: 6, TextType: models.TextMachine, ErrorType: models.MinorSemantic},
			{StartIndex: 10, EndIndex: 10, TextType: models.TextMachine},
			{StartIndex: 30, EndIndex: 999, TextType: models.TextMachine},
			{StartIndex: 20, EndIndex: 35, TextType: models.TextMachine, ErrorType: models.MajorSyntactic},
		},
		{
			{StartIndex: 0, EndIndex: len(text), TextType: models.TextMachine, ErrorType: models.MajorSemantic},
			{StartIndex: 5, EndIndex: 15, TextType: models.TextMachine, ErrorType: models.MinorSyntactic},
		},
	}

	for i, highlights := range cases {
		segments := Render(text, highlights, models.TextMachine)
		if got := concat(segments); got != text {
			t.Errorf("case %d: segments concatenate to %q, want %q", i, got, text)
		}
		for j, s := range segments {
			if s.Text == "" {
				t.Errorf("case %d: segment %d is empty", i, j)
			}
		}
	}
}

func TestRenderDefaultErrorType(t *testing.T) {
	highlights := []models.TextHighlight{
		{StartIndex: 0, EndIndex: 2, TextType: models.TextMachine},
	}
	segments := Render("abcd", highlights, models.TextMachine)
	if segments[0].ErrorType != models.MinorSyntactic {
		t.Errorf("untyped highlight rendered as %q, want MI_ST", segments[0].ErrorType)
	}
}
