package models

import "github.com/google/uuid"

// MatchMethod tags how an identifier was resolved.
type MatchMethod string

const (
	MatchMethodABN        MatchMethod = "ABN"
	MatchMethodNDIS       MatchMethod = "NDIS_NUMBER"
	MatchMethodEmail      MatchMethod = "EMAIL"
	MatchMethodDomain     MatchMethod = "EMAIL_DOMAIN"
	MatchMethodHistorical MatchMethod = "HISTORICAL"
	MatchMethodNone       MatchMethod = "NONE"
)

// MatchResult is the outcome of auto-matching an extracted invoice.
type MatchResult struct {
	ProviderID         *uuid.UUID  `json:"provider_id" yaml:"provider_id"`
	ParticipantID      *uuid.UUID  `json:"participant_id" yaml:"participant_id"`
	Confidence         float64     `json:"confidence" yaml:"confidence"`
	Method             MatchMethod `json:"method" yaml:"method"`
	ProviderDetails    string      `json:"provider_details" yaml:"provider_details"`
	ParticipantDetails string      `json:"participant_details" yaml:"participant_details"`
}

// MatchHistoryEntry is a previously resolved invoice from the same sender.
// Either identifier may be nil when that side was never resolved.
type MatchHistoryEntry struct {
	InvoiceID     uuid.UUID  `json:"invoice_id" yaml:"invoice_id"`
	ProviderID    *uuid.UUID `json:"provider_id" yaml:"provider_id"`
	ParticipantID *uuid.UUID `json:"participant_id" yaml:"participant_id"`
}
