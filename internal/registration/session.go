package registration

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

// TestSession holds one in-flight proficiency test: the fetched question
// order, the countdown deadline, the cursor, and the recorded answers.
type TestSession struct {
	ID           string
	Questions    []models.ProficiencyQuestion
	Deadline     time.Time
	CurrentIndex int

	// answers maps question id to the selected option index. At most one
	// answer per question; the latest selection wins.
	answers map[int64]int
}

// NewSessionID generates a session identifier in the test_<millis>_<rand>
// wire format the answer rows are grouped by.
func NewSessionID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("test_%d_%s", now.UnixMilli(), suffix)
}

// NewTestSession builds a session over the fetched questions with a countdown
// budget of secondsPerQuestion × len(questions).
func NewTestSession(id string, questions []models.ProficiencyQuestion, now time.Time, secondsPerQuestion int) *TestSession {
	budget := time.Duration(secondsPerQuestion*len(questions)) * time.Second
	return &TestSession{
		ID:        id,
		Questions: questions,
		Deadline:  now.Add(budget),
		answers:   make(map[int64]int),
	}
}

// Current returns the question under the cursor.
func (s *TestSession) Current() *models.ProficiencyQuestion {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// Select records an answer for the current question, overwriting any prior
// selection for it. Reselecting the same option is a no-op change.
func (s *TestSession) Select(optionIndex int) error {
	q := s.Current()
	if q == nil {
		return fmt.Errorf("no current question")
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("selected answer %d out of range for question %d", optionIndex, q.ID)
	}
	s.answers[q.ID] = optionIndex
	return nil
}

// Answered reports the recorded selection for a question id.
func (s *TestSession) Answered(questionID int64) (int, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// CanAdvance reports whether the current question has a recorded answer;
// Next is gated on this.
func (s *TestSession) CanAdvance() bool {
	q := s.Current()
	if q == nil {
		return false
	}
	_, ok := s.answers[q.ID]
	return ok
}

// Advance moves the cursor forward. It returns true when the cursor was on
// the last question, meaning the caller should submit instead of navigating.
func (s *TestSession) Advance() bool {
	if s.CurrentIndex >= len(s.Questions)-1 {
		return true
	}
	s.CurrentIndex++
	return false
}

// Retreat moves the cursor back. Visiting earlier questions never clears
// recorded answers.
func (s *TestSession) Retreat() {
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
}

// AnsweredCount is the number of questions with a recorded answer.
func (s *TestSession) AnsweredCount() int {
	return len(s.answers)
}

// Remaining returns the countdown left on the clock, floored at zero.
func (s *TestSession) Remaining(now time.Time) time.Duration {
	d := s.Deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// AnswerList flattens the recorded answers in question order for submission.
// Questions left unanswered at the deadline are sent with a -1 selection so
// they grade as wrong rather than dropping out of the denominator.
func (s *TestSession) AnswerList() []models.UserQuestionAnswer {
	answers := make([]models.UserQuestionAnswer, 0, len(s.Questions))
	for _, q := range s.Questions {
		selected, ok := s.answers[q.ID]
		if !ok {
			selected = -1
		}
		answers = append(answers, models.UserQuestionAnswer{
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			TestSessionID:  s.ID,
		})
	}
	return answers
}
