package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a business that invoices for supports.
type Provider struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	ABN           string    `json:"abn" yaml:"abn"`
	Email         string    `json:"email,omitempty" yaml:"email,omitempty"`
	BSB           string    `json:"bsb,omitempty" yaml:"bsb,omitempty"`
	AccountNumber string    `json:"account_number,omitempty" yaml:"account_number,omitempty"`
	AccountName   string    `json:"account_name,omitempty" yaml:"account_name,omitempty"`
}

// Participant is the beneficiary of the funded plan.
type Participant struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	NDISNumber string    `json:"ndis_number" yaml:"ndis_number"`
}

// ProviderEmailAssociation links a sender address to a provider.
// It is created unverified and promoted on a second confirmation.
type ProviderEmailAssociation struct {
	ProviderID uuid.UUID `json:"provider_id" yaml:"provider_id"`
	Email      string    `json:"email" yaml:"email"`
	Verified   bool      `json:"verified" yaml:"verified"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}
