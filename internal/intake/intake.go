// Package intake turns extraction and match output into a stored invoice.
package intake

import (
	"time"

	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

// BuildInvoice creates an invoice from extracted fields and the match that resolved
// them. Missing amounts default to zero and a missing date to the day of now.
func BuildInvoice(data models.ExtractedInvoiceData, match models.MatchResult, sender string, status models.InvoiceStatus, now time.Time) models.Invoice {
	inv := models.Invoice{
		ID:            uuid.New(),
		ProviderID:    match.ProviderID,
		ParticipantID: match.ParticipantID,
		SenderEmail:   textutils.NormalizeEmail(sender),
		MatchMethod:   match.Method,
		InvoiceDate:   dateutils.DateOnly(now),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if data.InvoiceNumber != nil {
		inv.InvoiceNumber = *data.InvoiceNumber
	}
	if data.InvoiceDate != nil {
		inv.InvoiceDate = *data.InvoiceDate
	}
	if data.Subtotal != nil {
		inv.Subtotal = *data.Subtotal
	}
	if data.GST != nil {
		inv.GST = *data.GST
	}
	if data.Total != nil {
		inv.Total = *data.Total
	}

	for _, item := range data.LineItems {
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			ID:           uuid.New(),
			InvoiceID:    inv.ID,
			ItemCode:     item.ItemCode,
			ItemName:     item.ItemName,
			CategoryCode: item.CategoryCode,
			ServiceDate:  item.ServiceDate,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
			GST:          item.GST,
		})
	}
	return inv
}
