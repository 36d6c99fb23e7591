package models

import "time"

// Evaluation status values.
const (
	EvaluationPending   = "pending"
	EvaluationCompleted = "completed"
	EvaluationReviewed  = "reviewed"
)

type Evaluation struct {
	ID                     int64       `json:"id"`
	AnnotationID           int64       `json:"annotation_id"`
	EvaluatorID            int64       `json:"evaluator_id"`
	AnnotationQualityScore *int        `json:"annotation_quality_score,omitempty"`
	AccuracyScore          *int        `json:"accuracy_score,omitempty"`
	CompletenessScore      *int        `json:"completeness_score,omitempty"`
	OverallEvaluationScore *int        `json:"overall_evaluation_score,omitempty"`
	Feedback               *string     `json:"feedback,omitempty"`
	EvaluationNotes        *string     `json:"evaluation_notes,omitempty"`
	EvaluationStatus       string      `json:"evaluation_status"`
	TimeSpentSeconds       *int        `json:"time_spent_seconds,omitempty"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
	Annotation             *Annotation `json:"annotation,omitempty"`
	Evaluator              *User       `json:"evaluator,omitempty"`
}

type EvaluationCreate struct {
	AnnotationID           int64   `json:"annotation_id"`
	AnnotationQualityScore *int    `json:"annotation_quality_score,omitempty"`
	AccuracyScore          *int    `json:"accuracy_score,omitempty"`
	CompletenessScore      *int    `json:"completeness_score,omitempty"`
	OverallEvaluationScore *int    `json:"overall_evaluation_score,omitempty"`
	Feedback               *string `json:"feedback,omitempty"`
	EvaluationNotes        *string `json:"evaluation_notes,omitempty"`
	TimeSpentSeconds       *int    `json:"time_spent_seconds,omitempty"`
}

type EvaluationUpdate struct {
	AnnotationQualityScore *int    `json:"annotation_quality_score,omitempty"`
	AccuracyScore          *int    `json:"accuracy_score,omitempty"`
	CompletenessScore      *int    `json:"completeness_score,omitempty"`
	OverallEvaluationScore *int    `json:"overall_evaluation_score,omitempty"`
	Feedback               *string `json:"feedback,omitempty"`
	EvaluationNotes        *string `json:"evaluation_notes,omitempty"`
	EvaluationStatus       *string `json:"evaluation_status,omitempty"`
	TimeSpentSeconds       *int    `json:"time_spent_seconds,omitempty"`
}

type EvaluatorStats struct {
	TotalEvaluations     int      `json:"total_evaluations"`
	CompletedEvaluations int      `json:"completed_evaluations"`
	PendingEvaluations   int      `json:"pending_evaluations"`
	AverageRating        *float64 `json:"average_rating,omitempty"`
	TotalTimeSpent       int      `json:"total_time_spent"`
	EvaluationsToday     int      `json:"evaluations_today"`
	WeeklyProgress       []int    `json:"weekly_progress"`
}
