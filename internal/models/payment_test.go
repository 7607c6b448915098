package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentInstruction_LodgementReference(t *testing.T) {
	withRef := PaymentInstruction{Payment: Payment{Reference: "INV 1001"}, ClaimReference: "CLM-20260101-0001"}
	assert.Equal(t, "INV 1001", withRef.LodgementReference())

	fallback := PaymentInstruction{ClaimReference: "CLM-20260101-0001"}
	assert.Equal(t, "CLM-20260101-0001", fallback.LodgementReference())
}

func TestClaimReferencePattern(t *testing.T) {
	assert.True(t, ClaimReferencePattern.MatchString("CLM-20261019-0001"))
	assert.False(t, ClaimReferencePattern.MatchString("clm-20261019-0001"))
	assert.False(t, ClaimReferencePattern.MatchString("CLM-2026101-0001"))
	assert.False(t, ClaimReferencePattern.MatchString("CLM-20261019-00001"))
}

func TestOCRLine_IsLine(t *testing.T) {
	assert.True(t, OCRLine{Text: "a"}.IsLine())
	assert.True(t, OCRLine{Text: "a", Type: BlockTypeLine}.IsLine())
	assert.True(t, OCRLine{Text: "a", Type: "line"}.IsLine())
	assert.True(t, OCRLine{Text: "a", Type: " Line "}.IsLine())
	assert.False(t, OCRLine{Text: "a", Type: "WORD"}.IsLine())
}

func TestInvoice_IsResolved(t *testing.T) {
	assert.False(t, Invoice{}.IsResolved())
}
