package registration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

type fakeSource struct {
	questions []models.ProficiencyQuestion
	err       error
	calls     int
}

func (f *fakeSource) QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error) {
	f.calls++
	return f.questions, f.err
}

type fakeScorer struct {
	result  *models.TestResult
	err     error
	calls   int
	last    []models.UserQuestionAnswer
	entered chan struct{}
	release chan struct{}
}

func (f *fakeScorer) ScoreAnswers(ctx context.Context, answers []models.UserQuestionAnswer, sessionID string, languages []string) (*models.TestResult, error) {
	f.calls++
	f.last = answers
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return f.result, f.err
}

type fakeRegistrar struct {
	user  *models.User
	err   error
	calls int
	last  models.RegisterRequest
}

func (f *fakeRegistrar) CreateAccount(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.calls++
	f.last = req
	return f.user, f.err
}

func testQuestions(n int) []models.ProficiencyQuestion {
	qs := make([]models.ProficiencyQuestion, n)
	for i := range qs {
		qs[i] = models.ProficiencyQuestion{
			ID:       int64(i + 1),
			Language: "Tagalog",
			Type:     "grammar",
			Question: "Which form is correct?",
			Options:  []string{"a", "b", "c", "d"},
		}
	}
	return qs
}

// newTestWizard builds a wizard with deterministic time and a timer that
// never fires on its own.
func newTestWizard(source QuestionSource, scorer Scorer, registrar Registrar) (*Wizard, time.Time) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	w := NewWizard("wiz-1", source, scorer, registrar, 90)
	w.now = func() time.Time { return start }
	w.startTimer = func(d time.Duration, fn func()) *time.Timer {
		return time.NewTimer(time.Hour)
	}
	return w, start
}

// advanceToTest walks a valid draft through steps 1-3.
func advanceToTest(t *testing.T, w *Wizard) {
	t.Helper()

	if err := w.SelectRole(RoleAnnotator); err != nil {
		t.Fatalf("SelectRole: %v", err)
	}
	if _, err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next from user_type: %v", err)
	}

	w.UpdateFields("", "", "", "", "Maria", "Santos")
	w.ToggleLanguage("tagalog")
	if _, err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next from personal_info: %v", err)
	}

	w.UpdateFields("maria@example.com", "maria_s", "secret123", "secret123", "", "")
	ok, err := w.Next(context.Background())
	if err != nil {
		t.Fatalf("Next from account_details: %v", err)
	}
	if !ok {
		t.Fatalf("account details rejected: %v / %q", w.State().FieldErrors, w.State().Message)
	}
}

func answerAll(t *testing.T, w *Wizard, n int) *Outcome {
	t.Helper()

	var outcome *Outcome
	for i := 0; i < n; i++ {
		if err := w.SelectAnswer(0); err != nil {
			t.Fatalf("SelectAnswer %d: %v", i, err)
		}
		out, err := w.NextQuestion(context.Background())
		if err != nil {
			t.Fatalf("NextQuestion %d: %v", i, err)
		}
		outcome = out
	}
	return outcome
}

func TestWizardPassFlow(t *testing.T) {
	source := &fakeSource{questions: testQuestions(3)}
	scorer := &fakeScorer{result: &models.TestResult{Score: 70.0, Passed: true, TotalQuestions: 3, CorrectAnswers: 3}}
	registrar := &fakeRegistrar{user: &models.User{ID: 7, Username: "maria_s"}}
	w, _ := newTestWizard(source, scorer, registrar)

	advanceToTest(t, w)
	if st := w.State(); st.Step != int(StepProficiencyTest) {
		t.Fatalf("step = %d, want %d", st.Step, StepProficiencyTest)
	}

	outcome := answerAll(t, w, 3)
	if outcome == nil || !outcome.Passed {
		t.Fatalf("outcome = %+v, want passed", outcome)
	}
	if outcome.User == nil || outcome.User.ID != 7 {
		t.Errorf("outcome.User = %+v, want created user", outcome.User)
	}

	st := w.State()
	if st.Step != int(StepDone) || !st.Done {
		t.Errorf("step = %d done = %v, want done", st.Step, st.Done)
	}
	if registrar.calls != 1 {
		t.Errorf("registrar calls = %d, want 1", registrar.calls)
	}
	if !registrar.last.OnboardingPassed {
		t.Error("register request should carry onboarding_passed")
	}
	if len(registrar.last.TestAnswers) != 3 {
		t.Errorf("register request answers = %d, want 3", len(registrar.last.TestAnswers))
	}
	if registrar.last.TestSessionID == "" {
		t.Error("register request should carry the test session id")
	}
}

func TestWizardExactPassingScorePasses(t *testing.T) {
	source := &fakeSource{questions: testQuestions(1)}
	scorer := &fakeScorer{result: &models.TestResult{Score: models.PassingScore, Passed: true}}
	registrar := &fakeRegistrar{user: &models.User{ID: 1}}
	w, _ := newTestWizard(source, scorer, registrar)

	advanceToTest(t, w)
	outcome := answerAll(t, w, 1)
	if !outcome.Passed {
		t.Errorf("a score of exactly %.1f must pass", models.PassingScore)
	}
}

func TestWizardRefusesTestWithoutQuestions(t *testing.T) {
	source := &fakeSource{}
	w, _ := newTestWizard(source, &fakeScorer{}, &fakeRegistrar{})

	advanceToTest := func() bool {
		w.SelectRole(RoleAnnotator)
		w.Next(context.Background())
		w.UpdateFields("m@e.com", "maria_s", "secret123", "secret123", "Maria", "Santos")
		w.ToggleLanguage("tagalog")
		w.ToggleLanguage("cebuano")
		w.Next(context.Background())
		ok, _ := w.Next(context.Background())
		return ok
	}

	if advanceToTest() {
		t.Fatal("wizard entered the test step with no questions available")
	}

	st := w.State()
	if st.Step != int(StepAccountDetails) {
		t.Errorf("step = %d, want %d", st.Step, StepAccountDetails)
	}
	want := "No proficiency test questions are currently available for your selected languages (Tagalog, Cebuano). Please try selecting different languages or contact support for assistance."
	if st.Message != want {
		t.Errorf("message = %q, want %q", st.Message, want)
	}
}

func TestWizardTimeBudgetScalesWithQuestionCount(t *testing.T) {
	source := &fakeSource{questions: testQuestions(5)}
	w, _ := newTestWizard(source, &fakeScorer{}, &fakeRegistrar{})

	advanceToTest(t, w)

	if got := w.State().RemainingSeconds; got != 450 {
		t.Errorf("RemainingSeconds = %d, want 450 for 5 questions at 90s each", got)
	}
}

func TestWizardFailedScoreResetsToAccountDetails(t *testing.T) {
	source := &fakeSource{questions: testQuestions(2)}
	scorer := &fakeScorer{result: &models.TestResult{Score: 50.0, Passed: false}}
	registrar := &fakeRegistrar{}
	w, _ := newTestWizard(source, scorer, registrar)

	advanceToTest(t, w)
	firstSession := w.State().SessionID
	outcome := answerAll(t, w, 2)

	if outcome.Passed {
		t.Fatal("outcome should not pass")
	}
	if !strings.Contains(outcome.Message, "You scored 50.0%") {
		t.Errorf("message = %q, want the score spelled out", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "at least 70% to pass") {
		t.Errorf("message = %q, want the passing threshold", outcome.Message)
	}
	if registrar.calls != 0 {
		t.Errorf("registrar calls = %d, want 0 on a failed test", registrar.calls)
	}

	st := w.State()
	if st.Step != int(StepAccountDetails) {
		t.Errorf("step = %d, want %d", st.Step, StepAccountDetails)
	}
	if st.SessionID != "" {
		t.Error("session state should be cleared after a failed attempt")
	}

	// A retry re-fetches questions and gets a fresh session id.
	w.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	if ok, _ := w.Next(context.Background()); !ok {
		t.Fatal("retry should re-enter the test step")
	}
	if source.calls != 2 {
		t.Errorf("source calls = %d, want 2 (refetch on retry)", source.calls)
	}
	if retry := w.State().SessionID; retry == firstSession || retry == "" {
		t.Errorf("retry session id = %q, want a fresh id", retry)
	}
}

func TestWizardRegistrationFailureAfterPass(t *testing.T) {
	source := &fakeSource{questions: testQuestions(1)}
	scorer := &fakeScorer{result: &models.TestResult{Score: 100.0, Passed: true}}
	registrar := &fakeRegistrar{err: errors.New("duplicate email")}
	w, _ := newTestWizard(source, scorer, registrar)

	advanceToTest(t, w)
	outcome := answerAll(t, w, 1)

	want := "Registration failed after passing the test. Please try again or contact support."
	if outcome.Message != want {
		t.Errorf("message = %q, want %q", outcome.Message, want)
	}

	st := w.State()
	if st.Step != int(StepAccountDetails) || st.Done {
		t.Errorf("step = %d done = %v, want account_details and not done", st.Step, st.Done)
	}
	if st.SessionID != "" {
		t.Error("test state should be cleared so a retry starts clean")
	}
}

func TestWizardSubmitFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"transport", errors.New("dial tcp 10.0.0.5:5432: connection refused"), "Error submitting proficiency test. Please try again."},
		{"answer lookup", errors.New("Failed to validate test answers: db unavailable"), "Test validation failed. Please try again."},
		{"validation detail", errors.New("Test validation failed: question 9 not found"), "Test validation failed: question 9 not found"},
		{"registration", errors.New("Registration failed: duplicate key"), "Registration failed. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &fakeSource{questions: testQuestions(1)}
			scorer := &fakeScorer{err: tc.err}
			registrar := &fakeRegistrar{}
			w, _ := newTestWizard(source, scorer, registrar)

			advanceToTest(t, w)
			outcome := answerAll(t, w, 1)

			if outcome.Message != tc.want {
				t.Errorf("message = %q, want %q", outcome.Message, tc.want)
			}
			if registrar.calls != 0 {
				t.Errorf("registrar calls = %d, want 0 when scoring fails", registrar.calls)
			}

			st := w.State()
			if st.Step != int(StepAccountDetails) {
				t.Errorf("step = %d, want %d", st.Step, StepAccountDetails)
			}
			if st.SessionID != "" {
				t.Error("test state should be cleared so a retry starts clean")
			}
		})
	}
}

func TestWizardExpiryAutoSubmitsOnce(t *testing.T) {
	source := &fakeSource{questions: testQuestions(2)}
	scorer := &fakeScorer{result: &models.TestResult{Score: 100.0, Passed: true}}
	registrar := &fakeRegistrar{user: &models.User{ID: 3}}
	w, _ := newTestWizard(source, scorer, registrar)

	var expire func()
	w.startTimer = func(d time.Duration, fn func()) *time.Timer {
		expire = fn
		return time.NewTimer(time.Hour)
	}

	advanceToTest(t, w)
	if expire == nil {
		t.Fatal("entering the test step should arm the countdown")
	}
	if err := w.SelectAnswer(2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	// The countdown reaches zero with the second question unanswered.
	expire()

	if scorer.calls != 1 {
		t.Fatalf("scorer calls = %d, want 1", scorer.calls)
	}
	if len(scorer.last) != 2 {
		t.Fatalf("submitted answers = %d, want 2", len(scorer.last))
	}
	if scorer.last[0].SelectedAnswer != 2 || scorer.last[1].SelectedAnswer != -1 {
		t.Errorf("answers = %d, %d, want the recorded 2 and -1 for the unanswered question",
			scorer.last[0].SelectedAnswer, scorer.last[1].SelectedAnswer)
	}
	if registrar.calls != 1 {
		t.Errorf("registrar calls = %d, want 1", registrar.calls)
	}
	if st := w.State(); !st.Done {
		t.Errorf("wizard not done after expiry submit: step = %d", st.Step)
	}

	// A stray second firing finds no test in progress and scores nothing.
	expire()
	if scorer.calls != 1 {
		t.Errorf("scorer calls after second firing = %d, want still 1", scorer.calls)
	}
}

func TestWizardDoubleSubmitGuard(t *testing.T) {
	source := &fakeSource{questions: testQuestions(1)}
	scorer := &fakeScorer{
		result:  &models.TestResult{Score: 100.0, Passed: true},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	registrar := &fakeRegistrar{user: &models.User{ID: 1}}
	w, _ := newTestWizard(source, scorer, registrar)

	advanceToTest(t, w)
	if err := w.SelectAnswer(0); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	done := make(chan *Outcome, 1)
	go func() {
		out, _ := w.Submit(context.Background())
		done <- out
	}()
	<-scorer.entered

	// Second submit while the first is scoring must be rejected.
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("concurrent Submit error = %v, want ErrSubmissionInFlight", err)
	}

	close(scorer.release)
	out := <-done
	if out == nil || !out.Passed {
		t.Fatalf("first submit outcome = %+v, want passed", out)
	}
	if registrar.calls != 1 {
		t.Errorf("registrar calls = %d, want exactly 1", registrar.calls)
	}

	// Submitting after completion is also rejected.
	if _, err := w.Submit(context.Background()); err == nil {
		t.Error("Submit after completion should fail")
	}
}

func TestWizardAdvanceRequiresAnswer(t *testing.T) {
	source := &fakeSource{questions: testQuestions(2)}
	w, _ := newTestWizard(source, &fakeScorer{}, &fakeRegistrar{})

	advanceToTest(t, w)

	if _, err := w.NextQuestion(context.Background()); err == nil {
		t.Error("NextQuestion should fail before the current question is answered")
	}

	if err := w.SelectAnswer(1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if _, err := w.NextQuestion(context.Background()); err != nil {
		t.Errorf("NextQuestion after answering: %v", err)
	}

	// Going back never clears the recorded answer.
	if err := w.PreviousQuestion(); err != nil {
		t.Fatalf("PreviousQuestion: %v", err)
	}
	st := w.State()
	if st.SelectedAnswer == nil || *st.SelectedAnswer != 1 {
		t.Errorf("SelectedAnswer = %v, want 1 preserved after going back", st.SelectedAnswer)
	}
}

func TestWizardPersonalInfoGuard(t *testing.T) {
	w, _ := newTestWizard(&fakeSource{}, &fakeScorer{}, &fakeRegistrar{})

	w.SelectRole(RoleAnnotator)
	w.Next(context.Background())

	// No names, no languages.
	ok, err := w.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatal("step 2 guard should block an incomplete draft")
	}
	if got := w.State().Message; got != "Please complete all required fields before continuing" {
		t.Errorf("message = %q", got)
	}
}

func TestWizardBackNavigation(t *testing.T) {
	w, _ := newTestWizard(&fakeSource{}, &fakeScorer{}, &fakeRegistrar{})

	w.SelectRole(RoleAnnotator)
	w.Next(context.Background())

	if err := w.Back(); err != nil {
		t.Fatalf("Back from personal_info: %v", err)
	}
	if st := w.State(); st.Step != int(StepUserType) {
		t.Errorf("step = %d, want %d", st.Step, StepUserType)
	}

	if err := w.Back(); err == nil {
		t.Error("Back from the first step should fail")
	}
}

func TestWizardEvaluatorRoleRejected(t *testing.T) {
	w, _ := newTestWizard(&fakeSource{}, &fakeScorer{}, &fakeRegistrar{})

	if err := w.SelectRole(RoleEvaluator); err == nil {
		t.Error("evaluator self-registration should be rejected")
	}
	if err := w.SelectRole("admin"); err == nil {
		t.Error("unknown roles should be rejected")
	}
}
