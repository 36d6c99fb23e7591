package registration

import (
	"strings"
	"testing"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

func TestNewSessionIDFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	id := NewSessionID(now)

	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != "test" {
		t.Fatalf("session id = %q, want test_<millis>_<rand>", id)
	}
	if parts[1] != "1772355600000" {
		t.Errorf("millis part = %q, want 1772355600000", parts[1])
	}
	if len(parts[2]) != 9 {
		t.Errorf("random part = %q, want 9 characters", parts[2])
	}
}

func TestSessionRemainingFloorsAtZero(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := NewTestSession("s", testQuestions(2), start, 90)

	if got := session.Remaining(start); got != 180*time.Second {
		t.Errorf("Remaining at start = %v, want 180s", got)
	}
	if got := session.Remaining(start.Add(time.Hour)); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0", got)
	}
}

func TestSessionLatestSelectionWins(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := NewTestSession("s", testQuestions(1), start, 90)

	if err := session.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.Select(2); err != nil {
		t.Fatalf("Select: %v", err)
	}

	answers := session.AnswerList()
	if len(answers) != 1 || answers[0].SelectedAnswer != 2 {
		t.Errorf("answers = %+v, want the latest selection (2)", answers)
	}
}

func TestSessionSelectRejectsOutOfRange(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := NewTestSession("s", testQuestions(1), start, 90)

	if err := session.Select(-1); err == nil {
		t.Error("Select(-1) should fail")
	}
	if err := session.Select(4); err == nil {
		t.Error("Select past the option count should fail")
	}
}

func TestSessionAnswerListKeepsQuestionOrder(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := NewTestSession("sess", testQuestions(3), start, 90)

	// Answer out of order: third question first, then the first. The
	// second stays unanswered and is submitted as -1 (graded wrong).
	session.CurrentIndex = 2
	if err := session.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	session.CurrentIndex = 0
	if err := session.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	answers := session.AnswerList()
	want := []models.UserQuestionAnswer{
		{QuestionID: 1, SelectedAnswer: 0, TestSessionID: "sess"},
		{QuestionID: 2, SelectedAnswer: -1, TestSessionID: "sess"},
		{QuestionID: 3, SelectedAnswer: 1, TestSessionID: "sess"},
	}
	if len(answers) != len(want) {
		t.Fatalf("len(answers) = %d, want %d", len(answers), len(want))
	}
	for i := range want {
		if answers[i].QuestionID != want[i].QuestionID ||
			answers[i].SelectedAnswer != want[i].SelectedAnswer {
			t.Errorf("answers[%d] = %+v, want %+v", i, answers[i], want[i])
		}
	}
}

func TestSessionAdvanceSubmitsOnLastQuestion(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := NewTestSession("s", testQuestions(2), start, 90)

	session.Select(0)
	if submit := session.Advance(); submit {
		t.Error("Advance from the first question should not submit")
	}
	session.Select(0)
	if submit := session.Advance(); !submit {
		t.Error("Advance past the last question should submit")
	}
}
