package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/wimarka-uic/lakra/internal/config"
)

func Connect(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(50) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		preferred_language VARCHAR(50) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_evaluator BOOLEAN NOT NULL DEFAULT FALSE,
		guidelines_seen BOOLEAN NOT NULL DEFAULT FALSE,
		onboarding_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		onboarding_score REAL,
		onboarding_completed_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS user_languages (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		language VARCHAR(50) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_languages_user ON user_languages(user_id);

	CREATE TABLE IF NOT EXISTS sentences (
		id BIGSERIAL PRIMARY KEY,
		source_text TEXT NOT NULL,
		machine_translation TEXT NOT NULL,
		reference_translation TEXT,
		source_language VARCHAR(50) NOT NULL,
		target_language VARCHAR(50) NOT NULL,
		domain VARCHAR(100),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sentences_target ON sentences(target_language, is_active);

	CREATE TABLE IF NOT EXISTS annotations (
		id BIGSERIAL PRIMARY KEY,
		sentence_id BIGINT NOT NULL REFERENCES sentences(id),
		annotator_id BIGINT NOT NULL REFERENCES users(id),
		fluency_score INT,
		adequacy_score INT,
		overall_quality INT,
		errors_found TEXT,
		suggested_correction TEXT,
		comments TEXT,
		final_form TEXT,
		voice_recording_url VARCHAR(500),
		voice_recording_duration INT,
		time_spent_seconds INT,
		annotation_status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(sentence_id, annotator_id)
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_annotator ON annotations(annotator_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_sentence ON annotations(sentence_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_status ON annotations(annotation_status);

	CREATE TABLE IF NOT EXISTS text_highlights (
		id BIGSERIAL PRIMARY KEY,
		annotation_id BIGINT NOT NULL REFERENCES annotations(id) ON DELETE CASCADE,
		highlighted_text TEXT NOT NULL,
		start_index INT NOT NULL,
		end_index INT NOT NULL,
		text_type VARCHAR(20) NOT NULL DEFAULT 'machine',
		comment TEXT NOT NULL DEFAULT '',
		error_type VARCHAR(10) NOT NULL DEFAULT 'MI_SE',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_highlights_annotation ON text_highlights(annotation_id);

	CREATE TABLE IF NOT EXISTS evaluations (
		id BIGSERIAL PRIMARY KEY,
		annotation_id BIGINT NOT NULL REFERENCES annotations(id),
		evaluator_id BIGINT NOT NULL REFERENCES users(id),
		annotation_quality_score INT,
		accuracy_score INT,
		completeness_score INT,
		overall_evaluation_score INT,
		feedback TEXT,
		evaluation_notes TEXT,
		evaluation_status VARCHAR(20) NOT NULL DEFAULT 'completed',
		time_spent_seconds INT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(annotation_id, evaluator_id)
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_evaluator ON evaluations(evaluator_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_annotation ON evaluations(annotation_id);

	CREATE TABLE IF NOT EXISTS mt_quality_assessments (
		id BIGSERIAL PRIMARY KEY,
		sentence_id BIGINT NOT NULL REFERENCES sentences(id),
		evaluator_id BIGINT NOT NULL REFERENCES users(id),
		fluency_score REAL,
		adequacy_score REAL,
		overall_quality_score REAL,
		syntax_errors TEXT,
		semantic_errors TEXT,
		quality_explanation TEXT,
		correction_suggestions TEXT,
		model_confidence REAL,
		processing_time_ms INT,
		time_spent_seconds INT,
		human_feedback TEXT,
		correction_notes TEXT,
		evaluation_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(sentence_id, evaluator_id)
	);

	CREATE INDEX IF NOT EXISTS idx_mt_assessments_evaluator ON mt_quality_assessments(evaluator_id);
	CREATE INDEX IF NOT EXISTS idx_mt_assessments_sentence ON mt_quality_assessments(sentence_id);

	CREATE TABLE IF NOT EXISTS language_proficiency_questions (
		id BIGSERIAL PRIMARY KEY,
		language VARCHAR(50) NOT NULL,
		type VARCHAR(20) NOT NULL,
		question TEXT NOT NULL,
		options JSONB NOT NULL,
		correct_answer INT NOT NULL,
		explanation TEXT NOT NULL,
		difficulty VARCHAR(20) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_by BIGINT REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_proficiency_language ON language_proficiency_questions(language, is_active);
	CREATE INDEX IF NOT EXISTS idx_proficiency_type ON language_proficiency_questions(type);
	CREATE INDEX IF NOT EXISTS idx_proficiency_difficulty ON language_proficiency_questions(difficulty);

	CREATE TABLE IF NOT EXISTS user_question_answers (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question_id BIGINT NOT NULL REFERENCES language_proficiency_questions(id),
		selected_answer INT NOT NULL,
		is_correct BOOLEAN NOT NULL,
		answered_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		test_session_id VARCHAR(100)
	);

	CREATE INDEX IF NOT EXISTS idx_answers_user ON user_question_answers(user_id);
	CREATE INDEX IF NOT EXISTS idx_answers_question ON user_question_answers(question_id);
	CREATE INDEX IF NOT EXISTS idx_answers_session ON user_question_answers(test_session_id);

	CREATE TABLE IF NOT EXISTS onboarding_tests (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		language VARCHAR(50) NOT NULL,
		test_data JSONB NOT NULL,
		score REAL,
		status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		completed_at TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_onboarding_user ON onboarding_tests(user_id);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent column additions for databases created before these fields.
	alterStatements := []string{
		`ALTER TABLE sentences ADD COLUMN IF NOT EXISTS reference_translation TEXT`,
		`ALTER TABLE annotations ADD COLUMN IF NOT EXISTS voice_recording_url VARCHAR(500)`,
		`ALTER TABLE annotations ADD COLUMN IF NOT EXISTS voice_recording_duration INT`,
		`ALTER TABLE annotations ADD COLUMN IF NOT EXISTS final_form TEXT`,
		`ALTER TABLE text_highlights ADD COLUMN IF NOT EXISTS error_type VARCHAR(10) NOT NULL DEFAULT 'MI_SE'`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS onboarding_status VARCHAR(20) NOT NULL DEFAULT 'pending'`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS onboarding_score REAL`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS onboarding_completed_at TIMESTAMP WITH TIME ZONE`,
		`ALTER TABLE user_question_answers ADD COLUMN IF NOT EXISTS test_session_id VARCHAR(100)`,
	}

	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	return nil
}
