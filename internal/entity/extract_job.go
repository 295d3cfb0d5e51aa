package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob tracks one uploaded document through the pipeline.
type ExtractJob struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Filename      string          `json:"filename"`
	DocType       *string         `json:"doc_type,omitempty"`
	Institution   *string         `json:"institution,omitempty"`
	Strategy      *string         `json:"strategy,omitempty"` // which extractor produced the result
	Status        string          `json:"status"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	OCRText       *string         `json:"ocr_text,omitempty"`
	ExtractedJSON json.RawMessage `json:"extracted_json,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}
