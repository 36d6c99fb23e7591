package evaluations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const evaluationColumns = `id, annotation_id, evaluator_id, annotation_quality_score,
	accuracy_score, completeness_score, overall_evaluation_score, feedback,
	evaluation_notes, evaluation_status, time_spent_seconds, created_at, updated_at`

func scanEvaluation(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Evaluation, error) {
	var e models.Evaluation
	err := scanner.Scan(&e.ID, &e.AnnotationID, &e.EvaluatorID,
		&e.AnnotationQualityScore, &e.AccuracyScore, &e.CompletenessScore,
		&e.OverallEvaluationScore, &e.Feedback, &e.EvaluationNotes,
		&e.EvaluationStatus, &e.TimeSpentSeconds, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) Create(ctx context.Context, evaluatorID int64, req models.EvaluationCreate) (*models.Evaluation, error) {
	evaluation, err := scanEvaluation(s.db.QueryRowContext(ctx,
		`INSERT INTO evaluations (annotation_id, evaluator_id, annotation_quality_score,
		                          accuracy_score, completeness_score, overall_evaluation_score,
		                          feedback, evaluation_notes, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+evaluationColumns,
		req.AnnotationID, evaluatorID, req.AnnotationQualityScore, req.AccuracyScore,
		req.CompletenessScore, req.OverallEvaluationScore, req.Feedback,
		req.EvaluationNotes, req.TimeSpentSeconds,
	))
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (s *Store) Update(ctx context.Context, id int64, req models.EvaluationUpdate) (*models.Evaluation, error) {
	evaluation, err := scanEvaluation(s.db.QueryRowContext(ctx,
		`UPDATE evaluations SET
		     annotation_quality_score = COALESCE($1, annotation_quality_score),
		     accuracy_score = COALESCE($2, accuracy_score),
		     completeness_score = COALESCE($3, completeness_score),
		     overall_evaluation_score = COALESCE($4, overall_evaluation_score),
		     feedback = COALESCE($5, feedback),
		     evaluation_notes = COALESCE($6, evaluation_notes),
		     evaluation_status = COALESCE($7, evaluation_status),
		     time_spent_seconds = COALESCE($8, time_spent_seconds),
		     updated_at = NOW()
		 WHERE id = $9
		 RETURNING `+evaluationColumns,
		req.AnnotationQualityScore, req.AccuracyScore, req.CompletenessScore,
		req.OverallEvaluationScore, req.Feedback, req.EvaluationNotes,
		req.EvaluationStatus, req.TimeSpentSeconds, id,
	))
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Evaluation, error) {
	evaluation, err := scanEvaluation(s.db.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (s *Store) EvaluatorID(ctx context.Context, id int64) (int64, error) {
	var evaluatorID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT evaluator_id FROM evaluations WHERE id = $1`, id,
	).Scan(&evaluatorID)
	return evaluatorID, err
}

func (s *Store) ListByEvaluator(ctx context.Context, evaluatorID int64, skip, limit int) ([]models.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluations WHERE evaluator_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		evaluatorID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []models.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// PendingAnnotations returns completed annotations in the evaluator's
// languages that they have not evaluated yet, excluding their own work.
func (s *Store) PendingAnnotations(ctx context.Context, evaluatorID int64, languages []string, skip, limit int) ([]models.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.sentence_id, a.annotator_id, a.fluency_score, a.adequacy_score,
		        a.overall_quality, a.errors_found, a.suggested_correction, a.comments,
		        a.final_form, a.voice_recording_url, a.voice_recording_duration,
		        a.time_spent_seconds, a.annotation_status, a.created_at, a.updated_at
		 FROM annotations a
		 JOIN sentences s ON s.id = a.sentence_id
		 WHERE a.annotation_status = 'completed'
		   AND a.annotator_id <> $1
		   AND s.target_language = ANY($2)
		   AND NOT EXISTS (
		       SELECT 1 FROM evaluations e
		       WHERE e.annotation_id = a.id AND e.evaluator_id = $1
		   )
		 ORDER BY a.updated_at
		 LIMIT $3 OFFSET $4`,
		evaluatorID, pq.Array(languages), limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("pending annotations: %w", err)
	}
	defer rows.Close()

	var annotations []models.Annotation
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(&a.ID, &a.SentenceID, &a.AnnotatorID, &a.FluencyScore,
			&a.AdequacyScore, &a.OverallQuality, &a.ErrorsFound, &a.SuggestedCorrection,
			&a.Comments, &a.FinalForm, &a.VoiceRecordingURL, &a.VoiceRecordingDuration,
			&a.TimeSpentSeconds, &a.AnnotationStatus, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

// Stats aggregates an evaluator's activity. Weekly progress is a 7-element
// count per day, oldest first, ending today.
func (s *Store) Stats(ctx context.Context, evaluatorID int64, now time.Time) (*models.EvaluatorStats, error) {
	stats := &models.EvaluatorStats{WeeklyProgress: make([]int, 7)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE evaluation_status = 'completed'),
		        COUNT(*) FILTER (WHERE evaluation_status = 'pending'),
		        AVG(overall_evaluation_score),
		        COALESCE(SUM(time_spent_seconds), 0),
		        COUNT(*) FILTER (WHERE created_at >= $2)
		 FROM evaluations WHERE evaluator_id = $1`,
		evaluatorID, startOfDay(now),
	).Scan(&stats.TotalEvaluations, &stats.CompletedEvaluations,
		&stats.PendingEvaluations, &stats.AverageRating,
		&stats.TotalTimeSpent, &stats.EvaluationsToday)
	if err != nil {
		return nil, fmt.Errorf("evaluator stats: %w", err)
	}

	weekStart := startOfDay(now).AddDate(0, 0, -6)
	rows, err := s.db.QueryContext(ctx,
		`SELECT DATE(created_at), COUNT(*)
		 FROM evaluations
		 WHERE evaluator_id = $1 AND created_at >= $2
		 GROUP BY DATE(created_at)`,
		evaluatorID, weekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		idx := int(startOfDay(day).Sub(weekStart).Hours() / 24)
		if idx >= 0 && idx < 7 {
			stats.WeeklyProgress[idx] = count
		}
	}
	return stats, rows.Err()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
