package models

import "time"

// MTQualityAssessment records a quality review of a machine translation.
// The ai_* style fields (errors, explanation, confidence, processing time) are
// computed upstream and stored verbatim; this service never runs a model.
type MTQualityAssessment struct {
	ID                    int64     `json:"id"`
	SentenceID            int64     `json:"sentence_id"`
	EvaluatorID           int64     `json:"evaluator_id"`
	FluencyScore          *float64  `json:"fluency_score,omitempty"`
	AdequacyScore         *float64  `json:"adequacy_score,omitempty"`
	OverallQualityScore   *float64  `json:"overall_quality_score,omitempty"`
	SyntaxErrors          *string   `json:"syntax_errors,omitempty"`
	SemanticErrors        *string   `json:"semantic_errors,omitempty"`
	QualityExplanation    *string   `json:"quality_explanation,omitempty"`
	CorrectionSuggestions *string   `json:"correction_suggestions,omitempty"`
	ModelConfidence       *float64  `json:"model_confidence,omitempty"`
	ProcessingTimeMs      *int      `json:"processing_time_ms,omitempty"`
	TimeSpentSeconds      *int      `json:"time_spent_seconds,omitempty"`
	HumanFeedback         *string   `json:"human_feedback,omitempty"`
	CorrectionNotes       *string   `json:"correction_notes,omitempty"`
	EvaluationStatus      string    `json:"evaluation_status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Sentence              *Sentence `json:"sentence,omitempty"`
	Evaluator             *User     `json:"evaluator,omitempty"`
}

type MTQualityCreate struct {
	SentenceID            int64    `json:"sentence_id"`
	FluencyScore          *float64 `json:"fluency_score,omitempty"`
	AdequacyScore         *float64 `json:"adequacy_score,omitempty"`
	OverallQualityScore   *float64 `json:"overall_quality_score,omitempty"`
	SyntaxErrors          *string  `json:"syntax_errors,omitempty"`
	SemanticErrors        *string  `json:"semantic_errors,omitempty"`
	QualityExplanation    *string  `json:"quality_explanation,omitempty"`
	CorrectionSuggestions *string  `json:"correction_suggestions,omitempty"`
	ModelConfidence       *float64 `json:"model_confidence,omitempty"`
	ProcessingTimeMs      *int     `json:"processing_time_ms,omitempty"`
	TimeSpentSeconds      *int     `json:"time_spent_seconds,omitempty"`
	HumanFeedback         *string  `json:"human_feedback,omitempty"`
	CorrectionNotes       *string  `json:"correction_notes,omitempty"`
}

type MTQualityUpdate struct {
	FluencyScore        *float64 `json:"fluency_score,omitempty"`
	AdequacyScore       *float64 `json:"adequacy_score,omitempty"`
	OverallQualityScore *float64 `json:"overall_quality_score,omitempty"`
	HumanFeedback       *string  `json:"human_feedback,omitempty"`
	CorrectionNotes     *string  `json:"correction_notes,omitempty"`
	TimeSpentSeconds    *int     `json:"time_spent_seconds,omitempty"`
	EvaluationStatus    *string  `json:"evaluation_status,omitempty"`
}

type MTEvaluatorStats struct {
	TotalAssessments         int      `json:"total_assessments"`
	CompletedAssessments     int      `json:"completed_assessments"`
	PendingAssessments       int      `json:"pending_assessments"`
	AverageOverallScore      *float64 `json:"average_overall_score,omitempty"`
	AverageFluencyScore      *float64 `json:"average_fluency_score,omitempty"`
	AverageAdequacyScore     *float64 `json:"average_adequacy_score,omitempty"`
	AverageTimePerAssess     *float64 `json:"average_time_per_assessment,omitempty"`
	AverageModelConfidence   *float64 `json:"average_model_confidence,omitempty"`
	TotalSyntaxErrorsFound   int      `json:"total_syntax_errors_found"`
	TotalSemanticErrorsFound int      `json:"total_semantic_errors_found"`
}
