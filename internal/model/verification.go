// Package model contains the struct definitions shared across the
// verification pipeline.
package model

import (
	"time"
)

// SearchType names how the registry was queried. The values appear verbatim
// in user-facing messages, so they read as prose rather than enum tokens.
type SearchType string

const (
	SearchTypeNumber SearchType = "NAFDAC number"
	SearchTypeName   SearchType = "product name"
)

// RetentionPeriod is how long a verification record is kept before the purge
// worker may delete it.
const RetentionPeriod = 90 * 24 * time.Hour

// VerificationRequest is the inbound payload of one verification attempt.
// Image holds the decoded bytes; RegistrationNumber is an optional operator
// override that bypasses recognition entirely.
type VerificationRequest struct {
	Image              []byte
	RegistrationNumber string
}

// ExtractionResult is the transient output of the extraction stage. Pointer
// fields are nil when the corresponding step produced nothing.
type ExtractionResult struct {
	VerificationID     string   `json:"verificationId"`
	Timestamp          string   `json:"timestamp"`
	ImageKey           string   `json:"imageKey"`
	RegistrationNumber *string  `json:"registrationNumber"`
	ProductName        *string  `json:"productName"`
	OCRConfidence      *float64 `json:"ocrConfidence"`
	ExtractedText      *string  `json:"extractedText"`
}

// ProductMatch is one row parsed from the registry results table.
type ProductMatch struct {
	ProductName        string `json:"product_name"`
	ActiveIngredients  string `json:"active_ingredients"`
	ProductCategory    string `json:"product_category"`
	RegistrationNumber string `json:"nrn"`
	Status             string `json:"status"`
}

// ValidationResult is the structured verdict of the matching stage. Success
// reports whether the attempt completed without malformed input; Found
// reports whether the registry contains a match. RegistryUnreachable marks
// verdicts produced by the fallback path when the registry session failed,
// so a true negative is distinguishable from "could not ask".
type ValidationResult struct {
	Success             bool           `json:"success"`
	Found               bool           `json:"found"`
	SearchTerm          string         `json:"searchTerm,omitempty"`
	SearchType          SearchType     `json:"searchType,omitempty"`
	RegistrationNumber  *string        `json:"nafdacNumber,omitempty"`
	Matches             []ProductMatch `json:"results,omitempty"`
	Message             string         `json:"message,omitempty"`
	RegistryUnreachable bool           `json:"registryUnreachable,omitempty"`
}

// VerificationRecord is the durable artifact of one verification attempt.
// Records are append-only: the repository only ever inserts them.
type VerificationRecord struct {
	VerificationID     string           `json:"verificationId"`
	Timestamp          string           `json:"timestamp"`
	ImageKey           string           `json:"imageKey"`
	RegistrationNumber *string          `json:"registrationNumber,omitempty"`
	ValidationResult   ValidationResult `json:"validationResult"`
	ExpiresAt          time.Time        `json:"expiresAt"`
}

// MatchInput is what the orchestrator hands the matching stage.
type MatchInput struct {
	VerificationID     string  `json:"verificationId"`
	Timestamp          string  `json:"timestamp"`
	ImageKey           string  `json:"imageKey"`
	RegistrationNumber *string `json:"registrationNumber,omitempty"`
	ProductName        *string `json:"productName,omitempty"`
}

// VerifyResponse is returned to the caller once the pipeline completes. It
// mirrors the persisted record minus the retention deadline.
type VerifyResponse struct {
	VerificationID     string           `json:"verificationId"`
	Timestamp          string           `json:"timestamp"`
	ImageKey           string           `json:"imageKey"`
	RegistrationNumber *string          `json:"registrationNumber"`
	ValidationResult   ValidationResult `json:"validationResult"`
}
