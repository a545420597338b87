package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// QualityFlag is an advisory classification of how much usable text a PDF
// yielded. It never blocks playback, only the user-visible warning.
type QualityFlag string

const (
	QualityClean         QualityFlag = "clean"
	QualityLimitedText   QualityFlag = "limited_text"
	QualityLikelyScanned QualityFlag = "likely_scanned"
)

type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	MimeType     string         `json:"mime_type"`
	StoragePath  string         `json:"storage_path"`
	Transcript   string         `json:"transcript,omitempty"`
	PageEstimate int            `json:"page_estimate,omitempty"`
	Quality      QualityFlag    `json:"quality,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Extraction is the worker pipeline's output for one document.
type Extraction struct {
	Transcript   string      `json:"transcript"`
	PageEstimate int         `json:"page_estimate"`
	Quality      QualityFlag `json:"quality"`
	Summary      string      `json:"summary"`
}

// DocumentRef is the listing projection for the document library.
type DocumentRef struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
