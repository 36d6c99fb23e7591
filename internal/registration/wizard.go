package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

// Step identifies a wizard state.
type Step int

const (
	StepUserType Step = iota + 1
	StepPersonalInfo
	StepAccountDetails
	StepProficiencyTest
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepUserType:
		return "user_type"
	case StepPersonalInfo:
		return "personal_info"
	case StepAccountDetails:
		return "account_details"
	case StepProficiencyTest:
		return "proficiency_test"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// QuestionSource fetches active proficiency questions for a language set.
type QuestionSource interface {
	QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error)
}

// Scorer grades a submitted answer list server-side. Correctness is never
// computed in the wizard.
type Scorer interface {
	ScoreAnswers(ctx context.Context, answers []models.UserQuestionAnswer, sessionID string, languages []string) (*models.TestResult, error)
}

// Registrar creates the account once the test has been passed.
type Registrar interface {
	CreateAccount(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

// ErrSubmissionInFlight is returned when a submit races an already-running
// one; the timer and the manual path share a checked-and-set guard.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Outcome is the user-facing result of a submit attempt.
type Outcome struct {
	Passed  bool         `json:"passed"`
	Score   float64      `json:"score"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// Wizard is the 4-step registration state machine. All methods are safe for
// concurrent use; the expiry timer and HTTP handlers share one mutex.
type Wizard struct {
	ID string

	mu      sync.Mutex
	step    Step
	draft   Draft
	session *TestSession

	// questionsKey memoizes the fetched question set per sorted language
	// combination so revisiting step 3 does not refetch needlessly.
	questionsKey    string
	cachedQuestions []models.ProficiencyQuestion

	fieldErrors map[string]string
	message     string
	done        bool
	createdUser *models.User

	submitting bool

	source    QuestionSource
	scorer    Scorer
	registrar Registrar

	secondsPerQuestion int
	now                func() time.Time
	newSessionID       func(time.Time) string
	startTimer         func(d time.Duration, fn func()) *time.Timer
	expiry             *time.Timer

	// onDone is invoked with the wizard id once registration completes, so
	// the owning store can drop the entry. Called with w.mu held; it must
	// not lock the wizard.
	onDone func(id string)
}

func NewWizard(id string, source QuestionSource, scorer Scorer, registrar Registrar, secondsPerQuestion int) *Wizard {
	return &Wizard{
		ID:                 id,
		step:               StepUserType,
		draft:              NewDraft(),
		source:             source,
		scorer:             scorer,
		registrar:          registrar,
		secondsPerQuestion: secondsPerQuestion,
		now:                time.Now,
		newSessionID:       NewSessionID,
		startTimer:         time.AfterFunc,
	}
}

// ── Draft mutation ──────────────────────────────────────

func (w *Wizard) SelectRole(role string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch role {
	case RoleAnnotator:
		w.draft.UserType = RoleAnnotator
		return nil
	case RoleEvaluator:
		return fmt.Errorf("evaluator registration is not yet available")
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

// UpdateFields merges submitted form fields into the draft. Empty strings are
// ignored so each step can post only its own inputs.
func (w *Wizard) UpdateFields(email, username, password, confirm, firstName, lastName string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if email != "" {
		w.draft.Email = strings.TrimSpace(email)
	}
	if username != "" {
		w.draft.Username = strings.TrimSpace(username)
	}
	if password != "" {
		w.draft.Password = password
	}
	if confirm != "" {
		w.draft.ConfirmPassword = confirm
	}
	if firstName != "" {
		w.draft.FirstName = firstName
	}
	if lastName != "" {
		w.draft.LastName = lastName
	}
}

func (w *Wizard) ToggleLanguage(lang string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.ToggleLanguage(strings.ToLower(strings.TrimSpace(lang)))
}

func (w *Wizard) SetPreferredLanguage(lang string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.draft.SetPreferredLanguage(strings.ToLower(strings.TrimSpace(lang))) {
		return fmt.Errorf("language %q is not in the selected set", lang)
	}
	return nil
}

// ── Step transitions ────────────────────────────────────

// Next advances the wizard one step, enforcing the guard of the current step.
// A false return means the wizard stayed put; Message and FieldErrors carry
// the reason.
func (w *Wizard) Next(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.message = ""
	w.fieldErrors = nil

	switch w.step {
	case StepUserType:
		w.step = StepPersonalInfo
		return true, nil

	case StepPersonalInfo:
		if !w.draft.ValidatePersonalInfo() {
			w.message = "Please complete all required fields before continuing"
			return false, nil
		}
		w.step = StepAccountDetails
		return true, nil

	case StepAccountDetails:
		if errs := w.draft.ValidateAccountDetails(); len(errs) > 0 {
			w.fieldErrors = errs
			w.message = "Please correct the errors before submitting"
			return false, nil
		}
		if w.draft.UserType != RoleAnnotator {
			// Evaluators skip the proficiency test entirely.
			return w.registerDirectLocked(ctx)
		}
		return w.enterTestLocked(ctx)

	case StepProficiencyTest:
		return false, fmt.Errorf("test navigation handled per question")

	default:
		return false, fmt.Errorf("wizard already finished")
	}
}

// Back navigates 2→1 or 3→2. The test step has no manual back path.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepPersonalInfo:
		w.step = StepUserType
	case StepAccountDetails:
		w.step = StepPersonalInfo
	default:
		return fmt.Errorf("cannot go back from step %s", w.step)
	}
	w.message = ""
	w.fieldErrors = nil
	return nil
}

// enterTestLocked guards the 3→4 transition: questions must exist for the
// selected languages before the test step is ever shown.
func (w *Wizard) enterTestLocked(ctx context.Context) (bool, error) {
	key := memoKey(w.draft.Languages)
	questions := w.cachedQuestions
	if w.questionsKey != key {
		fetched, err := w.source.QuestionsByLanguages(ctx, w.draft.Languages)
		if err != nil {
			log.Printf("[wizard] question fetch failed for %s: %v", key, err)
			w.message = "Unable to load proficiency test questions. Please try again or contact support."
			return false, nil
		}
		questions = fetched
	}

	if len(questions) == 0 {
		w.questionsKey = ""
		w.cachedQuestions = nil
		w.message = fmt.Sprintf(
			"No proficiency test questions are currently available for your selected languages (%s). Please try selecting different languages or contact support for assistance.",
			strings.Join(w.draft.CapitalizedLanguages(), ", "),
		)
		return false, nil
	}

	w.questionsKey = key
	w.cachedQuestions = questions

	now := w.now()
	w.session = NewTestSession(w.newSessionID(now), questions, now, w.secondsPerQuestion)
	w.step = StepProficiencyTest

	budget := w.session.Deadline.Sub(now)
	w.expiry = w.startTimer(budget, func() {
		if _, err := w.Submit(context.Background()); err != nil && !errors.Is(err, ErrSubmissionInFlight) {
			log.Printf("[wizard] auto-submit on expiry failed for %s: %v", w.ID, err)
		}
	})

	return true, nil
}

func (w *Wizard) registerDirectLocked(ctx context.Context) (bool, error) {
	user, err := w.registrar.CreateAccount(ctx, w.registerRequestLocked(false, nil, ""))
	if err != nil {
		w.message = err.Error()
		return false, nil
	}
	w.createdUser = user
	w.done = true
	w.step = StepDone
	w.message = "Registration successful! You can now log in."
	if w.onDone != nil {
		w.onDone(w.ID)
	}
	return true, nil
}

// ── Test navigation ─────────────────────────────────────

// SelectAnswer records the option for the current question.
func (w *Wizard) SelectAnswer(optionIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepProficiencyTest || w.session == nil {
		return fmt.Errorf("no test in progress")
	}
	return w.session.Select(optionIndex)
}

// NextQuestion advances the cursor; on the last question it submits instead.
// Advancing requires a recorded answer for the current question.
func (w *Wizard) NextQuestion(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	if w.step != StepProficiencyTest || w.session == nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("no test in progress")
	}
	if !w.session.CanAdvance() {
		w.mu.Unlock()
		return nil, fmt.Errorf("answer the current question before continuing")
	}
	if submit := w.session.Advance(); !submit {
		w.mu.Unlock()
		return nil, nil
	}
	w.mu.Unlock()
	return w.Submit(ctx)
}

// PreviousQuestion is unrestricted among visited questions.
func (w *Wizard) PreviousQuestion() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepProficiencyTest || w.session == nil {
		return fmt.Errorf("no test in progress")
	}
	w.session.Retreat()
	return nil
}

// ── Submission ──────────────────────────────────────────

// Submit grades the recorded answers and, on a pass, creates the account in
// the same step. The manual path and the countdown expiry share this method;
// a checked-and-set in-flight flag makes double submission impossible.
func (w *Wizard) Submit(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	if w.step != StepProficiencyTest || w.session == nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("no test in progress")
	}
	if w.submitting || w.done {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	w.submitting = true

	session := w.session
	languages := append([]string(nil), w.draft.Languages...)
	answers := session.AnswerList()
	w.mu.Unlock()

	result, err := w.scorer.ScoreAnswers(ctx, answers, session.ID, languages)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		log.Printf("[wizard] test submission failed for %s: %v", w.ID, err)
		w.resetToAccountDetailsLocked(refineSubmitError(err))
		return &Outcome{Message: w.message}, nil
	}

	if !result.Passed {
		w.resetToAccountDetailsLocked(fmt.Sprintf(
			"You scored %.1f%% on the proficiency test. You need at least 70%% to pass. Don't worry - you can retake the test after reviewing the materials. Please go back and try again when you're ready.",
			result.Score,
		))
		return &Outcome{Score: result.Score, Message: w.message}, nil
	}

	// Passed: create the account with the answer list attached so profile
	// and test provenance persist together.
	user, err := w.registrar.CreateAccount(ctx, w.registerRequestLocked(true, answers, session.ID))
	if err != nil {
		log.Printf("[wizard] registration failed after pass for %s: %v", w.ID, err)
		w.resetToAccountDetailsLocked("Registration failed after passing the test. Please try again or contact support.")
		return &Outcome{Score: result.Score, Message: w.message}, nil
	}

	w.stopTimerLocked()
	w.session = nil
	w.done = true
	w.createdUser = user
	w.step = StepDone
	w.message = "Registration successful! You can now log in and start annotating."
	if w.onDone != nil {
		w.onDone(w.ID)
	}

	return &Outcome{
		Passed:  true,
		Score:   result.Score,
		Message: w.message,
		User:    user,
	}, nil
}

func (w *Wizard) registerRequestLocked(passed bool, answers []models.UserQuestionAnswer, sessionID string) models.RegisterRequest {
	return models.RegisterRequest{
		Email:             w.draft.Email,
		Username:          w.draft.Username,
		Password:          w.draft.Password,
		FirstName:         w.draft.FirstName,
		LastName:          w.draft.LastName,
		PreferredLanguage: w.draft.PreferredLanguage,
		Languages:         append([]string(nil), w.draft.Languages...),
		IsEvaluator:       w.draft.UserType == RoleEvaluator,
		UserType:          w.draft.UserType,
		OnboardingPassed:  passed,
		TestAnswers:       answers,
		TestSessionID:     sessionID,
	}
}

// resetToAccountDetailsLocked returns the wizard to a stable, retryable step
// with all transient test state cleared, so a retry re-validates, re-fetches
// questions, and generates a fresh session id.
func (w *Wizard) resetToAccountDetailsLocked(message string) {
	w.stopTimerLocked()
	w.session = nil
	w.cachedQuestions = nil
	w.questionsKey = ""
	w.step = StepAccountDetails
	w.message = message
}

func (w *Wizard) stopTimerLocked() {
	if w.expiry != nil {
		w.expiry.Stop()
		w.expiry = nil
	}
}

// refineSubmitError maps known data-layer error text to the user-facing
// variants; anything else gets the generic retry message.
func refineSubmitError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Registration failed"):
		return "Registration failed. Please try again."
	case strings.Contains(msg, "Failed to validate test answers"):
		return "Test validation failed. Please try again."
	case strings.Contains(msg, "Test validation failed"):
		return msg
	default:
		return "Error submitting proficiency test. Please try again."
	}
}

// ── State snapshot ──────────────────────────────────────

// State is a read-only snapshot for the HTTP surface. Correct answers and
// explanations never leave the server while a test is running.
type State struct {
	ID               string            `json:"id"`
	Step             int               `json:"step"`
	StepName         string            `json:"step_name"`
	Draft            Draft             `json:"draft"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
	Message          string            `json:"message,omitempty"`
	Done             bool              `json:"done"`
	User             *models.User      `json:"user,omitempty"`
	QuestionIndex    int               `json:"question_index,omitempty"`
	QuestionCount    int               `json:"question_count,omitempty"`
	AnsweredCount    int               `json:"answered_count,omitempty"`
	RemainingSeconds int               `json:"remaining_seconds,omitempty"`
	SessionID        string            `json:"test_session_id,omitempty"`
	Question         *TestQuestion     `json:"question,omitempty"`
	SelectedAnswer   *int              `json:"selected_answer,omitempty"`
}

// TestQuestion is a proficiency question stripped for display.
type TestQuestion struct {
	ID         int64    `json:"id"`
	Language   string   `json:"language"`
	Type       string   `json:"type"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := State{
		ID:          w.ID,
		Step:        int(w.step),
		StepName:    w.step.String(),
		Draft:       w.draft,
		FieldErrors: w.fieldErrors,
		Message:     w.message,
		Done:        w.done,
		User:        w.createdUser,
	}

	if w.step == StepProficiencyTest && w.session != nil {
		st.QuestionIndex = w.session.CurrentIndex
		st.QuestionCount = len(w.session.Questions)
		st.AnsweredCount = w.session.AnsweredCount()
		st.RemainingSeconds = int(w.session.Remaining(w.now()) / time.Second)
		st.SessionID = w.session.ID
		if q := w.session.Current(); q != nil {
			st.Question = &TestQuestion{
				ID:         q.ID,
				Language:   q.Language,
				Type:       q.Type,
				Question:   q.Question,
				Options:    q.Options,
				Difficulty: q.Difficulty,
			}
			if sel, ok := w.session.Answered(q.ID); ok {
				st.SelectedAnswer = &sel
			}
		}
	}

	return st
}

// memoKey is the sorted, joined language list used to decide whether a fetch
// can be reused.
func memoKey(languages []string) string {
	sorted := append([]string(nil), languages...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
