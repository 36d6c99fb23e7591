package proficiency

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

type fakeStore struct {
	questions map[int64]models.ProficiencyQuestion
	byLang    []models.ProficiencyQuestion

	savedAnswers  []models.UserQuestionAnswer
	savedSession  string
	updatedStatus string
	updatedScore  float64
	updatedUser   *models.User

	history       []models.UserQuestionAnswer
	historyLangs  map[int64]string
	langsReceived []string
}

func (f *fakeStore) QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error) {
	f.langsReceived = languages
	return f.byLang, nil
}

func (f *fakeStore) QuestionsByIDs(ctx context.Context, ids []int64) (map[int64]models.ProficiencyQuestion, error) {
	out := make(map[int64]models.ProficiencyQuestion)
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeStore) SaveAnswers(ctx context.Context, userID int64, answers []models.UserQuestionAnswer, sessionID string, now time.Time) error {
	f.savedAnswers = answers
	f.savedSession = sessionID
	return nil
}

func (f *fakeStore) UpdateOnboarding(ctx context.Context, userID int64, status string, score float64, now time.Time) (*models.User, error) {
	f.updatedStatus = status
	f.updatedScore = score
	if f.updatedUser == nil {
		f.updatedUser = &models.User{ID: userID, OnboardingStatus: status}
	}
	return f.updatedUser, nil
}

func (f *fakeStore) AnswerHistory(ctx context.Context, userID int64) ([]models.UserQuestionAnswer, map[int64]string, error) {
	return f.history, f.historyLangs, nil
}

func questionBank(n int, language string) map[int64]models.ProficiencyQuestion {
	bank := make(map[int64]models.ProficiencyQuestion, n)
	for i := 1; i <= n; i++ {
		bank[int64(i)] = models.ProficiencyQuestion{
			ID:            int64(i),
			Language:      language,
			CorrectAnswer: 0,
		}
	}
	return bank
}

func answersFor(correct, wrong int) []models.UserQuestionAnswer {
	var answers []models.UserQuestionAnswer
	id := int64(1)
	for i := 0; i < correct; i++ {
		answers = append(answers, models.UserQuestionAnswer{QuestionID: id, SelectedAnswer: 0})
		id++
	}
	for i := 0; i < wrong; i++ {
		answers = append(answers, models.UserQuestionAnswer{QuestionID: id, SelectedAnswer: 1})
		id++
	}
	return answers
}

func TestScoreAnswersExactThresholdPasses(t *testing.T) {
	store := &fakeStore{questions: questionBank(10, "Tagalog")}
	svc := NewService(store)

	result, err := svc.ScoreAnswers(context.Background(), answersFor(7, 3), "test_1_abc", []string{"tagalog"})
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}

	if result.Score != 70.0 {
		t.Errorf("Score = %v, want 70.0", result.Score)
	}
	if !result.Passed {
		t.Error("a score of exactly 70.0 must pass")
	}
	if result.CorrectAnswers != 7 || result.TotalQuestions != 10 {
		t.Errorf("correct/total = %d/%d, want 7/10", result.CorrectAnswers, result.TotalQuestions)
	}
}

func TestScoreAnswersBelowThresholdFails(t *testing.T) {
	store := &fakeStore{questions: questionBank(10, "Tagalog")}
	svc := NewService(store)

	result, err := svc.ScoreAnswers(context.Background(), answersFor(6, 4), "test_1_abc", nil)
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}
	if result.Passed {
		t.Errorf("60.0 should fail, got passed with score %v", result.Score)
	}
}

func TestScoreAnswersPerLanguageBreakdown(t *testing.T) {
	store := &fakeStore{questions: map[int64]models.ProficiencyQuestion{
		1: {ID: 1, Language: "Tagalog", CorrectAnswer: 0},
		2: {ID: 2, Language: "Tagalog", CorrectAnswer: 0},
		3: {ID: 3, Language: "Cebuano", CorrectAnswer: 0},
		4: {ID: 4, Language: "Cebuano", CorrectAnswer: 0},
	}}
	svc := NewService(store)

	answers := []models.UserQuestionAnswer{
		{QuestionID: 1, SelectedAnswer: 0},
		{QuestionID: 2, SelectedAnswer: 0},
		{QuestionID: 3, SelectedAnswer: 0},
		{QuestionID: 4, SelectedAnswer: 2},
	}

	result, err := svc.ScoreAnswers(context.Background(), answers, "s", nil)
	if err != nil {
		t.Fatalf("ScoreAnswers: %v", err)
	}

	tg := result.ByLanguage["Tagalog"]
	if tg.Total != 2 || tg.Correct != 2 || tg.Score != 100.0 {
		t.Errorf("Tagalog breakdown = %+v, want 2/2 at 100.0", tg)
	}
	cb := result.ByLanguage["Cebuano"]
	if cb.Total != 2 || cb.Correct != 1 || cb.Score != 50.0 {
		t.Errorf("Cebuano breakdown = %+v, want 1/2 at 50.0", cb)
	}
}

func TestScoreAnswersUnknownQuestion(t *testing.T) {
	store := &fakeStore{questions: questionBank(1, "Tagalog")}
	svc := NewService(store)

	answers := []models.UserQuestionAnswer{{QuestionID: 99, SelectedAnswer: 0}}
	_, err := svc.ScoreAnswers(context.Background(), answers, "s", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown question")
	}
	if !strings.Contains(err.Error(), "Test validation failed") {
		t.Errorf("error = %v, want a test validation failure", err)
	}
}

func TestScoreAnswersEmpty(t *testing.T) {
	svc := NewService(&fakeStore{})
	if _, err := svc.ScoreAnswers(context.Background(), nil, "s", nil); err == nil {
		t.Error("expected an error for an empty answer list")
	}
}

func TestSubmitAnswersRecomputesCorrectness(t *testing.T) {
	store := &fakeStore{questions: questionBank(2, "Tagalog")}
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	claimed := true
	req := models.SubmitAnswersRequest{
		TestSessionID: "test_1_xyz",
		Answers: []models.UserQuestionAnswer{
			{QuestionID: 1, SelectedAnswer: 0},
			// Wrong answer with a client-claimed is_correct, which must be
			// ignored.
			{QuestionID: 2, SelectedAnswer: 3, IsCorrect: &claimed},
		},
	}

	result, err := svc.SubmitAnswers(context.Background(), 42, req)
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	if result.Score != 50.0 {
		t.Errorf("Score = %v, want 50.0", result.Score)
	}
	if store.updatedStatus != models.OnboardingFailed {
		t.Errorf("onboarding status = %q, want %q", store.updatedStatus, models.OnboardingFailed)
	}
	if store.savedSession != "test_1_xyz" {
		t.Errorf("saved session = %q", store.savedSession)
	}
	if got := store.savedAnswers[1].IsCorrect; got == nil || *got {
		t.Error("wrong answer stored as correct; server must recompute correctness")
	}
	if result.UpdatedUser == nil || result.UpdatedUser.ID != 42 {
		t.Errorf("UpdatedUser = %+v, want user 42", result.UpdatedUser)
	}
}

func TestSubmitAnswersPassMarksCompleted(t *testing.T) {
	store := &fakeStore{questions: questionBank(4, "Tagalog")}
	svc := NewService(store)

	req := models.SubmitAnswersRequest{
		TestSessionID: "test_2_xyz",
		Answers:       answersFor(3, 1),
	}

	result, err := svc.SubmitAnswers(context.Background(), 7, req)
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if !result.Passed {
		t.Fatalf("75.0 should pass, got %v", result.Score)
	}
	if store.updatedStatus != models.OnboardingCompleted {
		t.Errorf("onboarding status = %q, want %q", store.updatedStatus, models.OnboardingCompleted)
	}
	if store.updatedScore != 75.0 {
		t.Errorf("recorded score = %v, want 75.0", store.updatedScore)
	}
}

func TestQuestionsByLanguagesCapitalizes(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	if _, err := svc.QuestionsByLanguages(context.Background(), []string{"tagalog", "cebuano"}); err != nil {
		t.Fatalf("QuestionsByLanguages: %v", err)
	}

	want := []string{"Tagalog", "Cebuano"}
	if len(store.langsReceived) != 2 || store.langsReceived[0] != want[0] || store.langsReceived[1] != want[1] {
		t.Errorf("store received %v, want %v", store.langsReceived, want)
	}
}

func TestSessionResultsGrouping(t *testing.T) {
	yes, no := true, false
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	store := &fakeStore{
		history: []models.UserQuestionAnswer{
			{QuestionID: 1, IsCorrect: &yes, TestSessionID: "test_a", AnsweredAt: base},
			{QuestionID: 2, IsCorrect: &no, TestSessionID: "test_a", AnsweredAt: base},
			{QuestionID: 1, IsCorrect: &yes, TestSessionID: "test_b", AnsweredAt: base.Add(time.Hour)},
		},
		historyLangs: map[int64]string{1: "Tagalog", 2: "Tagalog"},
	}
	svc := NewService(store)

	results, err := svc.SessionResults(context.Background(), 1)
	if err != nil {
		t.Fatalf("SessionResults: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	first := results[0]
	if first.SessionID != "test_a" || first.TotalQuestions != 2 || first.CorrectAnswers != 1 {
		t.Errorf("first session = %+v", first)
	}
	if first.Score != 50.0 || first.Passed {
		t.Errorf("first session score = %v passed = %v, want 50.0 fail", first.Score, first.Passed)
	}
	second := results[1]
	if second.SessionID != "test_b" || !second.Passed || second.Score != 100.0 {
		t.Errorf("second session = %+v", second)
	}
}
