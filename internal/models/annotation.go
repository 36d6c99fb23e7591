package models

import "time"

// Annotation status values.
const (
	AnnotationInProgress = "in_progress"
	AnnotationCompleted  = "completed"
	AnnotationReviewed   = "reviewed"
)

// Text types a highlight can attach to.
const (
	TextMachine   = "machine"
	TextReference = "reference"
)

// TextHighlight is a half-open character range [StartIndex, EndIndex) over one
// of a sentence's text fields, tagged with an error type and a comment.
type TextHighlight struct {
	ID              int64     `json:"id,omitempty"`
	AnnotationID    int64     `json:"annotation_id,omitempty"`
	HighlightedText string    `json:"highlighted_text"`
	StartIndex      int       `json:"start_index"`
	EndIndex        int       `json:"end_index"`
	TextType        string    `json:"text_type"`
	Comment         string    `json:"comment"`
	ErrorType       ErrorType `json:"error_type"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type Annotation struct {
	ID                     int64           `json:"id"`
	SentenceID             int64           `json:"sentence_id"`
	AnnotatorID            int64           `json:"annotator_id"`
	FluencyScore           *int            `json:"fluency_score,omitempty"`
	AdequacyScore          *int            `json:"adequacy_score,omitempty"`
	OverallQuality         *int            `json:"overall_quality,omitempty"`
	ErrorsFound            *string         `json:"errors_found,omitempty"`
	SuggestedCorrection    *string         `json:"suggested_correction,omitempty"`
	Comments               *string         `json:"comments,omitempty"`
	FinalForm              *string         `json:"final_form,omitempty"`
	VoiceRecordingURL      *string         `json:"voice_recording_url,omitempty"`
	VoiceRecordingDuration *int            `json:"voice_recording_duration,omitempty"`
	TimeSpentSeconds       *int            `json:"time_spent_seconds,omitempty"`
	AnnotationStatus       string          `json:"annotation_status"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	Sentence               *Sentence       `json:"sentence,omitempty"`
	Annotator              *User           `json:"annotator,omitempty"`
	Highlights             []TextHighlight `json:"highlights"`
}

type AnnotationCreate struct {
	SentenceID             int64           `json:"sentence_id"`
	FluencyScore           *int            `json:"fluency_score,omitempty"`
	AdequacyScore          *int            `json:"adequacy_score,omitempty"`
	OverallQuality         *int            `json:"overall_quality,omitempty"`
	ErrorsFound            *string         `json:"errors_found,omitempty"`
	SuggestedCorrection    *string         `json:"suggested_correction,omitempty"`
	Comments               *string         `json:"comments,omitempty"`
	FinalForm              *string         `json:"final_form,omitempty"`
	VoiceRecordingURL      *string         `json:"voice_recording_url,omitempty"`
	VoiceRecordingDuration *int            `json:"voice_recording_duration,omitempty"`
	TimeSpentSeconds       *int            `json:"time_spent_seconds,omitempty"`
	Highlights             []TextHighlight `json:"highlights,omitempty"`
}

type AnnotationUpdate struct {
	FluencyScore           *int            `json:"fluency_score,omitempty"`
	AdequacyScore          *int            `json:"adequacy_score,omitempty"`
	OverallQuality         *int            `json:"overall_quality,omitempty"`
	ErrorsFound            *string         `json:"errors_found,omitempty"`
	SuggestedCorrection    *string         `json:"suggested_correction,omitempty"`
	Comments               *string         `json:"comments,omitempty"`
	FinalForm              *string         `json:"final_form,omitempty"`
	VoiceRecordingURL      *string         `json:"voice_recording_url,omitempty"`
	VoiceRecordingDuration *int            `json:"voice_recording_duration,omitempty"`
	TimeSpentSeconds       *int            `json:"time_spent_seconds,omitempty"`
	AnnotationStatus       *string         `json:"annotation_status,omitempty"`
	Highlights             []TextHighlight `json:"highlights,omitempty"`
}

type VoiceUploadResponse struct {
	URL      string `json:"voice_recording_url"`
	Filename string `json:"filename"`
}
