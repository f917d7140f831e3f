package dto

import "time"

// CreateCardsRequest is the JSON body of the card generation endpoint. An
// empty list, like a list of blank codes, produces a document without pages.
type CreateCardsRequest struct {
	ItemCodes []string `json:"item_codes" binding:"required,max=500"`
}

// CreateCardsForm is the form body posted by the index page
type CreateCardsForm struct {
	ItemCodes string `form:"item_codes"`
}

// CreateCardsQuery selects the response representation
type CreateCardsQuery struct {
	// Format is "pdf" (default) or "json"
	Format string `form:"format" binding:"omitempty,oneof=pdf json"`
}

// GeneratedDocumentResponse describes a generated document without its bytes
type GeneratedDocumentResponse struct {
	RunID       string    `json:"run_id"`
	Name        string    `json:"name"`
	PageCount   int       `json:"page_count"`
	Size        int64     `json:"size"`
	Location    string    `json:"location,omitempty"`
	Skipped     []string  `json:"skipped"`
	GeneratedAt time.Time `json:"generated_at"`
}
