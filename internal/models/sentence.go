package models

import "time"

type Sentence struct {
	ID                   int64     `json:"id"`
	SourceText           string    `json:"source_text"`
	MachineTranslation   string    `json:"machine_translation"`
	ReferenceTranslation *string   `json:"reference_translation,omitempty"`
	SourceLanguage       string    `json:"source_language"`
	TargetLanguage       string    `json:"target_language"`
	Domain               *string   `json:"domain,omitempty"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
}

type SentenceCreate struct {
	SourceText           string  `json:"source_text"`
	MachineTranslation   string  `json:"machine_translation"`
	ReferenceTranslation *string `json:"reference_translation,omitempty"`
	SourceLanguage       string  `json:"source_language"`
	TargetLanguage       string  `json:"target_language"`
	Domain               *string `json:"domain,omitempty"`
}

type BulkSentenceRequest struct {
	Sentences []SentenceCreate `json:"sentences"`
}

// LanguageCount reports how many active sentences target a language.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}
