package registration

import (
	"testing"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

func TestStoreEvictsCompletedWizard(t *testing.T) {
	source := &fakeSource{questions: testQuestions(1)}
	scorer := &fakeScorer{result: &models.TestResult{Score: 100.0, Passed: true}}
	registrar := &fakeRegistrar{user: &models.User{ID: 5}}
	store := NewStore(source, scorer, registrar, 90)

	w := store.Create()
	w.startTimer = func(d time.Duration, fn func()) *time.Timer {
		return time.NewTimer(time.Hour)
	}

	advanceToTest(t, w)
	outcome := answerAll(t, w, 1)
	if outcome == nil || !outcome.Passed {
		t.Fatalf("outcome = %+v, want passed", outcome)
	}

	if _, err := store.Get(w.ID); err == nil {
		t.Error("completed wizard should no longer be retrievable")
	}
	store.mu.Lock()
	n := len(store.wizards)
	store.mu.Unlock()
	if n != 0 {
		t.Errorf("store retains %d wizards after completion, want 0", n)
	}
}

func TestStoreSweepsAbandonedDrafts(t *testing.T) {
	store := NewStore(&fakeSource{}, &fakeScorer{}, &fakeRegistrar{}, 90)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	stale := store.Create()
	clock = clock.Add(draftTTL + time.Minute)
	fresh := store.Create()

	if _, err := store.Get(stale.ID); err == nil {
		t.Error("abandoned draft should be swept on the next Create")
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Errorf("fresh draft should survive the sweep: %v", err)
	}
}

func TestStoreGetRefreshesIdleClock(t *testing.T) {
	store := NewStore(&fakeSource{}, &fakeScorer{}, &fakeRegistrar{}, 90)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	w := store.Create()

	clock = clock.Add(40 * time.Minute)
	if _, err := store.Get(w.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// 80 minutes since Create but only 40 since the last Get.
	clock = clock.Add(40 * time.Minute)
	store.Create()

	if _, err := store.Get(w.ID); err != nil {
		t.Errorf("recently touched draft should not be swept: %v", err)
	}
}
