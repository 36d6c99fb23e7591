package annotations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wimarka-uic/lakra/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const annotationColumns = `id, sentence_id, annotator_id, fluency_score, adequacy_score,
	overall_quality, errors_found, suggested_correction, comments, final_form,
	voice_recording_url, voice_recording_duration, time_spent_seconds,
	annotation_status, created_at, updated_at`

func scanAnnotation(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Annotation, error) {
	var a models.Annotation
	err := scanner.Scan(&a.ID, &a.SentenceID, &a.AnnotatorID, &a.FluencyScore,
		&a.AdequacyScore, &a.OverallQuality, &a.ErrorsFound, &a.SuggestedCorrection,
		&a.Comments, &a.FinalForm, &a.VoiceRecordingURL, &a.VoiceRecordingDuration,
		&a.TimeSpentSeconds, &a.AnnotationStatus, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts the annotation and its highlights in one transaction. The
// UNIQUE(sentence_id, annotator_id) constraint rejects a second annotation of
// the same sentence by the same user.
func (s *Store) Create(ctx context.Context, annotatorID int64, req models.AnnotationCreate, status string) (*models.Annotation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	annotation, err := scanAnnotation(tx.QueryRowContext(ctx,
		`INSERT INTO annotations (sentence_id, annotator_id, fluency_score, adequacy_score,
		                          overall_quality, errors_found, suggested_correction, comments,
		                          final_form, voice_recording_url, voice_recording_duration,
		                          time_spent_seconds, annotation_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+annotationColumns,
		req.SentenceID, annotatorID, req.FluencyScore, req.AdequacyScore,
		req.OverallQuality, req.ErrorsFound, req.SuggestedCorrection, req.Comments,
		req.FinalForm, req.VoiceRecordingURL, req.VoiceRecordingDuration,
		req.TimeSpentSeconds, status,
	))
	if err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	highlights, err := insertHighlights(ctx, tx, annotation.ID, req.Highlights)
	if err != nil {
		return nil, err
	}
	annotation.Highlights = highlights

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &annotation, nil
}

// Update rewrites the provided fields and, when highlights are present,
// replaces the full highlight set in the same transaction.
func (s *Store) Update(ctx context.Context, id int64, req models.AnnotationUpdate) (*models.Annotation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	annotation, err := scanAnnotation(tx.QueryRowContext(ctx,
		`UPDATE annotations SET
		     fluency_score = COALESCE($1, fluency_score),
		     adequacy_score = COALESCE($2, adequacy_score),
		     overall_quality = COALESCE($3, overall_quality),
		     errors_found = COALESCE($4, errors_found),
		     suggested_correction = COALESCE($5, suggested_correction),
		     comments = COALESCE($6, comments),
		     final_form = COALESCE($7, final_form),
		     voice_recording_url = COALESCE($8, voice_recording_url),
		     voice_recording_duration = COALESCE($9, voice_recording_duration),
		     time_spent_seconds = COALESCE($10, time_spent_seconds),
		     annotation_status = COALESCE($11, annotation_status),
		     updated_at = NOW()
		 WHERE id = $12
		 RETURNING `+annotationColumns,
		req.FluencyScore, req.AdequacyScore, req.OverallQuality, req.ErrorsFound,
		req.SuggestedCorrection, req.Comments, req.FinalForm, req.VoiceRecordingURL,
		req.VoiceRecordingDuration, req.TimeSpentSeconds, req.AnnotationStatus, id,
	))
	if err != nil {
		return nil, err
	}

	if req.Highlights != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM text_highlights WHERE annotation_id = $1`, id,
		); err != nil {
			return nil, fmt.Errorf("clear highlights: %w", err)
		}
		highlights, err := insertHighlights(ctx, tx, id, req.Highlights)
		if err != nil {
			return nil, err
		}
		annotation.Highlights = highlights
	} else {
		highlights, err := loadHighlightsTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		annotation.Highlights = highlights
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &annotation, nil
}

func insertHighlights(ctx context.Context, tx *sql.Tx, annotationID int64, highlights []models.TextHighlight) ([]models.TextHighlight, error) {
	out := make([]models.TextHighlight, 0, len(highlights))
	for _, hl := range highlights {
		var inserted models.TextHighlight
		err := tx.QueryRowContext(ctx,
			`INSERT INTO text_highlights (annotation_id, highlighted_text, start_index,
			                              end_index, text_type, comment, error_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, annotation_id, highlighted_text, start_index, end_index,
			           text_type, comment, error_type, created_at`,
			annotationID, hl.HighlightedText, hl.StartIndex, hl.EndIndex,
			hl.TextType, hl.Comment, hl.ErrorType,
		).Scan(&inserted.ID, &inserted.AnnotationID, &inserted.HighlightedText,
			&inserted.StartIndex, &inserted.EndIndex, &inserted.TextType,
			&inserted.Comment, &inserted.ErrorType, &inserted.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert highlight: %w", err)
		}
		out = append(out, inserted)
	}
	return out, nil
}

func loadHighlightsTx(ctx context.Context, tx *sql.Tx, annotationID int64) ([]models.TextHighlight, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, annotation_id, highlighted_text, start_index, end_index,
		        text_type, comment, error_type, created_at
		 FROM text_highlights WHERE annotation_id = $1 ORDER BY start_index, id`,
		annotationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load highlights: %w", err)
	}
	defer rows.Close()
	return collectHighlights(rows)
}

func (s *Store) loadHighlights(ctx context.Context, annotationID int64) ([]models.TextHighlight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, annotation_id, highlighted_text, start_index, end_index,
		        text_type, comment, error_type, created_at
		 FROM text_highlights WHERE annotation_id = $1 ORDER BY start_index, id`,
		annotationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load highlights: %w", err)
	}
	defer rows.Close()
	return collectHighlights(rows)
}

func collectHighlights(rows *sql.Rows) ([]models.TextHighlight, error) {
	highlights := []models.TextHighlight{}
	for rows.Next() {
		var hl models.TextHighlight
		if err := rows.Scan(&hl.ID, &hl.AnnotationID, &hl.HighlightedText,
			&hl.StartIndex, &hl.EndIndex, &hl.TextType, &hl.Comment,
			&hl.ErrorType, &hl.CreatedAt); err != nil {
			return nil, err
		}
		highlights = append(highlights, hl)
	}
	return highlights, rows.Err()
}

// Get returns an annotation with its sentence and highlights attached.
func (s *Store) Get(ctx context.Context, id int64) (*models.Annotation, error) {
	annotation, err := scanAnnotation(s.db.QueryRowContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}

	if err := s.attach(ctx, &annotation); err != nil {
		return nil, err
	}
	return &annotation, nil
}

func (s *Store) attach(ctx context.Context, a *models.Annotation) error {
	highlights, err := s.loadHighlights(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Highlights = highlights

	var sentence models.Sentence
	err = s.db.QueryRowContext(ctx,
		`SELECT id, source_text, machine_translation, reference_translation,
		        source_language, target_language, domain, is_active, created_at
		 FROM sentences WHERE id = $1`,
		a.SentenceID,
	).Scan(&sentence.ID, &sentence.SourceText, &sentence.MachineTranslation,
		&sentence.ReferenceTranslation, &sentence.SourceLanguage,
		&sentence.TargetLanguage, &sentence.Domain, &sentence.IsActive,
		&sentence.CreatedAt)
	if err != nil {
		return fmt.Errorf("load sentence: %w", err)
	}
	a.Sentence = &sentence
	return nil
}

func (s *Store) ListByAnnotator(ctx context.Context, annotatorID int64, skip, limit int) ([]models.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE annotator_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		annotatorID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	return s.collectWithDetails(ctx, rows)
}

func (s *Store) ListBySentence(ctx context.Context, sentenceID int64) ([]models.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE sentence_id = $1 ORDER BY id`,
		sentenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	return s.collectWithDetails(ctx, rows)
}

func (s *Store) AdminList(ctx context.Context, status string, skip, limit int) ([]models.Annotation, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where = " WHERE annotation_status = $1"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM annotations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count annotations: %w", err)
	}

	args = append(args, limit)
	query := `SELECT ` + annotationColumns + ` FROM annotations` + where +
		fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("admin list annotations: %w", err)
	}
	defer rows.Close()

	annotations, err := s.collectWithDetails(ctx, rows)
	return annotations, total, err
}

func (s *Store) collectWithDetails(ctx context.Context, rows *sql.Rows) ([]models.Annotation, error) {
	var annotations []models.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range annotations {
		if err := s.attach(ctx, &annotations[i]); err != nil {
			return nil, err
		}
	}
	return annotations, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
