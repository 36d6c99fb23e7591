package sentences

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const sentenceColumns = `id, source_text, machine_translation, reference_translation,
	source_language, target_language, domain, is_active, created_at`

func scanSentence(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Sentence, error) {
	var s models.Sentence
	err := scanner.Scan(&s.ID, &s.SourceText, &s.MachineTranslation,
		&s.ReferenceTranslation, &s.SourceLanguage, &s.TargetLanguage,
		&s.Domain, &s.IsActive, &s.CreatedAt)
	return s, err
}

func (s *Store) Create(ctx context.Context, req models.SentenceCreate) (*models.Sentence, error) {
	sentence, err := scanSentence(s.db.QueryRowContext(ctx,
		`INSERT INTO sentences (source_text, machine_translation, reference_translation,
		                        source_language, target_language, domain)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+sentenceColumns,
		req.SourceText, req.MachineTranslation, req.ReferenceTranslation,
		req.SourceLanguage, req.TargetLanguage, req.Domain,
	))
	if err != nil {
		return nil, fmt.Errorf("create sentence: %w", err)
	}
	return &sentence, nil
}

// BulkCreate inserts a batch in one transaction; either all rows land or none.
func (s *Store) BulkCreate(ctx context.Context, reqs []models.SentenceCreate) ([]models.Sentence, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	created := make([]models.Sentence, 0, len(reqs))
	for _, req := range reqs {
		sentence, err := scanSentence(tx.QueryRowContext(ctx,
			`INSERT INTO sentences (source_text, machine_translation, reference_translation,
			                        source_language, target_language, domain)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+sentenceColumns,
			req.SourceText, req.MachineTranslation, req.ReferenceTranslation,
			req.SourceLanguage, req.TargetLanguage, req.Domain,
		))
		if err != nil {
			return nil, fmt.Errorf("bulk create sentence: %w", err)
		}
		created = append(created, sentence)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Sentence, error) {
	sentence, err := scanSentence(s.db.QueryRowContext(ctx,
		`SELECT `+sentenceColumns+` FROM sentences WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

// List returns active sentences, optionally filtered by target language.
func (s *Store) List(ctx context.Context, targetLanguage string, skip, limit int) ([]models.Sentence, error) {
	query := `SELECT ` + sentenceColumns + ` FROM sentences WHERE is_active = TRUE`
	var args []interface{}

	if targetLanguage != "" {
		args = append(args, targetLanguage)
		query += fmt.Sprintf(" AND target_language = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sentences: %w", err)
	}
	defer rows.Close()

	return collectSentences(rows)
}

// AdminList includes inactive rows and free-text search.
func (s *Store) AdminList(ctx context.Context, targetLanguage, search string, skip, limit int) ([]models.Sentence, int, error) {
	var conditions []string
	var args []interface{}

	if targetLanguage != "" {
		args = append(args, targetLanguage)
		conditions = append(conditions, fmt.Sprintf("target_language = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(source_text ILIKE $%d OR machine_translation ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentences`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sentences: %w", err)
	}

	args = append(args, limit)
	query := `SELECT ` + sentenceColumns + ` FROM sentences` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("admin list sentences: %w", err)
	}
	defer rows.Close()

	sentences, err := collectSentences(rows)
	return sentences, total, err
}

// NextUnannotated picks the oldest active sentence in the user's languages
// that they have not annotated yet.
func (s *Store) NextUnannotated(ctx context.Context, userID int64, languages []string) (*models.Sentence, error) {
	sentence, err := scanSentence(s.db.QueryRowContext(ctx,
		`SELECT `+sentenceColumns+`
		 FROM sentences s
		 WHERE s.is_active = TRUE
		   AND s.target_language = ANY($1)
		   AND NOT EXISTS (
		       SELECT 1 FROM annotations a
		       WHERE a.sentence_id = s.id AND a.annotator_id = $2
		   )
		 ORDER BY s.id
		 LIMIT 1`,
		pq.Array(languages), userID,
	))
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

// Unannotated lists sentences the user has not yet annotated.
func (s *Store) Unannotated(ctx context.Context, userID int64, languages []string, skip, limit int) ([]models.Sentence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sentenceColumns+`
		 FROM sentences s
		 WHERE s.is_active = TRUE
		   AND s.target_language = ANY($1)
		   AND NOT EXISTS (
		       SELECT 1 FROM annotations a
		       WHERE a.sentence_id = s.id AND a.annotator_id = $2
		   )
		 ORDER BY s.id
		 LIMIT $3 OFFSET $4`,
		pq.Array(languages), userID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("unannotated sentences: %w", err)
	}
	defer rows.Close()

	return collectSentences(rows)
}

func (s *Store) CountsByLanguage(ctx context.Context) ([]models.LanguageCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT target_language, COUNT(*)
		 FROM sentences
		 WHERE is_active = TRUE
		 GROUP BY target_language
		 ORDER BY target_language`,
	)
	if err != nil {
		return nil, fmt.Errorf("sentence counts: %w", err)
	}
	defer rows.Close()

	var counts []models.LanguageCount
	for rows.Next() {
		var c models.LanguageCount
		if err := rows.Scan(&c.Language, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *Store) Deactivate(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET is_active = FALSE WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate sentence: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collectSentences(rows *sql.Rows) ([]models.Sentence, error) {
	var sentences []models.Sentence
	for rows.Next() {
		s, err := scanSentence(rows)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, s)
	}
	return sentences, rows.Err()
}
