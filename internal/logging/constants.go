package logging

// Standardized field names for structured logging.
const (
	FieldInvoiceID      = "invoice_id"
	FieldInvoiceNumber  = "invoice_number"
	FieldProviderID     = "provider_id"
	FieldParticipantID  = "participant_id"
	FieldSender         = "sender"
	FieldMethod         = "method"
	FieldConfidence     = "confidence"
	FieldTier           = "tier"
	FieldClaimReference = "claim_reference"
	FieldPaymentID      = "payment_id"
	FieldPaymentCount   = "payment_count"
	FieldBatchID        = "batch_id"
	FieldBatchFile      = "batch_file"
	FieldTotal          = "total"
	FieldCount          = "count"
	FieldField          = "field"
	FieldOperation      = "operation"
	FieldStatus         = "status"
	FieldError          = "error"
	FieldDuration       = "duration_ms"
	FieldInputFile      = "input_file"
	FieldOutputFile     = "output_file"
	FieldApp            = "app"
)
