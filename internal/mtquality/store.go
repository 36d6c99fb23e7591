package mtquality

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const assessmentColumns = `id, sentence_id, evaluator_id, fluency_score, adequacy_score,
	overall_quality_score, syntax_errors, semantic_errors, quality_explanation,
	correction_suggestions, model_confidence, processing_time_ms, time_spent_seconds,
	human_feedback, correction_notes, evaluation_status, created_at, updated_at`

func scanAssessment(scanner interface {
	Scan(dest ...interface{}) error
}) (models.MTQualityAssessment, error) {
	var a models.MTQualityAssessment
	err := scanner.Scan(&a.ID, &a.SentenceID, &a.EvaluatorID, &a.FluencyScore,
		&a.AdequacyScore, &a.OverallQualityScore, &a.SyntaxErrors, &a.SemanticErrors,
		&a.QualityExplanation, &a.CorrectionSuggestions, &a.ModelConfidence,
		&a.ProcessingTimeMs, &a.TimeSpentSeconds, &a.HumanFeedback,
		&a.CorrectionNotes, &a.EvaluationStatus, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) Create(ctx context.Context, evaluatorID int64, req models.MTQualityCreate) (*models.MTQualityAssessment, error) {
	assessment, err := scanAssessment(s.db.QueryRowContext(ctx,
		`INSERT INTO mt_quality_assessments (sentence_id, evaluator_id, fluency_score,
		     adequacy_score, overall_quality_score, syntax_errors, semantic_errors,
		     quality_explanation, correction_suggestions, model_confidence,
		     processing_time_ms, time_spent_seconds, human_feedback, correction_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING `+assessmentColumns,
		req.SentenceID, evaluatorID, req.FluencyScore, req.AdequacyScore,
		req.OverallQualityScore, req.SyntaxErrors, req.SemanticErrors,
		req.QualityExplanation, req.CorrectionSuggestions, req.ModelConfidence,
		req.ProcessingTimeMs, req.TimeSpentSeconds, req.HumanFeedback,
		req.CorrectionNotes,
	))
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (s *Store) Update(ctx context.Context, id int64, req models.MTQualityUpdate) (*models.MTQualityAssessment, error) {
	assessment, err := scanAssessment(s.db.QueryRowContext(ctx,
		`UPDATE mt_quality_assessments SET
		     fluency_score = COALESCE($1, fluency_score),
		     adequacy_score = COALESCE($2, adequacy_score),
		     overall_quality_score = COALESCE($3, overall_quality_score),
		     human_feedback = COALESCE($4, human_feedback),
		     correction_notes = COALESCE($5, correction_notes),
		     time_spent_seconds = COALESCE($6, time_spent_seconds),
		     evaluation_status = COALESCE($7, evaluation_status),
		     updated_at = NOW()
		 WHERE id = $8
		 RETURNING `+assessmentColumns,
		req.FluencyScore, req.AdequacyScore, req.OverallQualityScore,
		req.HumanFeedback, req.CorrectionNotes, req.TimeSpentSeconds,
		req.EvaluationStatus, id,
	))
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.MTQualityAssessment, error) {
	assessment, err := scanAssessment(s.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM mt_quality_assessments WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (s *Store) EvaluatorID(ctx context.Context, id int64) (int64, error) {
	var evaluatorID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT evaluator_id FROM mt_quality_assessments WHERE id = $1`, id,
	).Scan(&evaluatorID)
	return evaluatorID, err
}

func (s *Store) ListByEvaluator(ctx context.Context, evaluatorID int64, skip, limit int) ([]models.MTQualityAssessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM mt_quality_assessments WHERE evaluator_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		evaluatorID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	return collectAssessments(rows)
}

func (s *Store) ListBySentence(ctx context.Context, sentenceID int64) ([]models.MTQualityAssessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM mt_quality_assessments WHERE sentence_id = $1 ORDER BY id`,
		sentenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	return collectAssessments(rows)
}

func (s *Store) AdminList(ctx context.Context, status string, skip, limit int) ([]models.MTQualityAssessment, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where = " WHERE evaluation_status = $1"
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mt_quality_assessments`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	args = append(args, limit)
	query := `SELECT ` + assessmentColumns + ` FROM mt_quality_assessments` + where +
		fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("admin list assessments: %w", err)
	}
	defer rows.Close()

	assessments, err := collectAssessments(rows)
	return assessments, total, err
}

// PendingSentences lists active sentences in the evaluator's languages that
// they have not assessed yet.
func (s *Store) PendingSentences(ctx context.Context, evaluatorID int64, languages []string, skip, limit int) ([]models.Sentence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, machine_translation, reference_translation,
		        source_language, target_language, domain, is_active, created_at
		 FROM sentences s
		 WHERE s.is_active = TRUE
		   AND s.target_language = ANY($1)
		   AND NOT EXISTS (
		       SELECT 1 FROM mt_quality_assessments m
		       WHERE m.sentence_id = s.id AND m.evaluator_id = $2
		   )
		 ORDER BY s.id
		 LIMIT $3 OFFSET $4`,
		pq.Array(languages), evaluatorID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("pending sentences: %w", err)
	}
	defer rows.Close()

	var sentences []models.Sentence
	for rows.Next() {
		var sent models.Sentence
		if err := rows.Scan(&sent.ID, &sent.SourceText, &sent.MachineTranslation,
			&sent.ReferenceTranslation, &sent.SourceLanguage, &sent.TargetLanguage,
			&sent.Domain, &sent.IsActive, &sent.CreatedAt); err != nil {
			return nil, err
		}
		sentences = append(sentences, sent)
	}
	return sentences, rows.Err()
}

func (s *Store) Stats(ctx context.Context, evaluatorID int64) (*models.MTEvaluatorStats, error) {
	stats := &models.MTEvaluatorStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE evaluation_status = 'completed'),
		        COUNT(*) FILTER (WHERE evaluation_status = 'pending'),
		        AVG(overall_quality_score),
		        AVG(fluency_score),
		        AVG(adequacy_score),
		        AVG(time_spent_seconds),
		        AVG(model_confidence),
		        COUNT(*) FILTER (WHERE syntax_errors IS NOT NULL AND syntax_errors <> '' AND syntax_errors <> '[]'),
		        COUNT(*) FILTER (WHERE semantic_errors IS NOT NULL AND semantic_errors <> '' AND semantic_errors <> '[]')
		 FROM mt_quality_assessments WHERE evaluator_id = $1`,
		evaluatorID,
	).Scan(&stats.TotalAssessments, &stats.CompletedAssessments,
		&stats.PendingAssessments, &stats.AverageOverallScore,
		&stats.AverageFluencyScore, &stats.AverageAdequacyScore,
		&stats.AverageTimePerAssess, &stats.AverageModelConfidence,
		&stats.TotalSyntaxErrorsFound, &stats.TotalSemanticErrorsFound)
	if err != nil {
		return nil, fmt.Errorf("mt evaluator stats: %w", err)
	}
	return stats, nil
}

func collectAssessments(rows *sql.Rows) ([]models.MTQualityAssessment, error) {
	var assessments []models.MTQualityAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
