package aba

import (
	"strings"
	"time"

	"fjacquet/claimflow/internal/dateutils"
)

const (
	// RecordLength is the fixed width of every record.
	RecordLength = 120
	// LineTerminator ends every record, including the last one.
	LineTerminator = "\r\n"

	transactionCodeCredit = "50"
	footerBSB             = "999-999"
	maxFieldAmount        = 9999999999
)

// Header is the descriptive (type 0) record.
type Header struct {
	Sequence       int
	BankCode       string
	OriginatorName string
	OriginatorID   string
	Description    string
	ProcessingDate time.Time
}

// Detail is one credit (type 1) record.
type Detail struct {
	BSB           string
	AccountNumber string
	Amount        int64
	AccountName   string
	Reference     string
	TraceBSB      string
	TraceAccount  string
	Remitter      string
}

// Footer is the batch control (type 7) record.
type Footer struct {
	NetTotal    int64
	CreditTotal int64
	DebitTotal  int64
	Count       int
}

func (h Header) String() string {
	var b strings.Builder
	b.Grow(RecordLength)
	b.WriteString("0")
	b.WriteString(blanks(17))
	b.WriteString(padAmount(int64(h.Sequence), 2))
	b.WriteString(padText(h.BankCode, 3))
	b.WriteString(blanks(7))
	b.WriteString(padText(h.OriginatorName, 26))
	b.WriteString(padNumeric(h.OriginatorID, 6))
	b.WriteString(padText(h.Description, 12))
	b.WriteString(dateutils.ToDDMMYY(h.ProcessingDate))
	b.WriteString(blanks(40))
	return b.String()
}

// String renders the record. BSBs must already be in NNN-NNN form.
func (d Detail) String() string {
	var b strings.Builder
	b.Grow(RecordLength)
	b.WriteString("1")
	b.WriteString(padText(d.BSB, 7))
	b.WriteString(padText(d.AccountNumber, 9))
	b.WriteString(" ")
	b.WriteString(transactionCodeCredit)
	b.WriteString(padAmount(d.Amount, 10))
	b.WriteString(padText(d.AccountName, 32))
	b.WriteString(padText(d.Reference, 18))
	b.WriteString(padText(d.TraceBSB, 7))
	b.WriteString(padText(d.TraceAccount, 9))
	b.WriteString(padText(d.Remitter, 16))
	b.WriteString(padAmount(0, 8))
	return b.String()
}

func (f Footer) String() string {
	var b strings.Builder
	b.Grow(RecordLength)
	b.WriteString("7")
	b.WriteString(footerBSB)
	b.WriteString(blanks(12))
	b.WriteString(padAmount(f.NetTotal, 10))
	b.WriteString(padAmount(f.CreditTotal, 10))
	b.WriteString(padAmount(f.DebitTotal, 10))
	b.WriteString(blanks(24))
	b.WriteString(padAmount(int64(f.Count), 6))
	b.WriteString(blanks(40))
	return b.String()
}

// Render joins the header, details and a computed footer into file content.
func Render(h Header, details []Detail) string {
	var total int64
	for _, d := range details {
		total += d.Amount
	}
	footer := Footer{NetTotal: total, CreditTotal: total, Count: len(details)}

	var b strings.Builder
	b.Grow((len(details) + 2) * (RecordLength + len(LineTerminator)))
	b.WriteString(h.String())
	b.WriteString(LineTerminator)
	for _, d := range details {
		b.WriteString(d.String())
		b.WriteString(LineTerminator)
	}
	b.WriteString(footer.String())
	b.WriteString(LineTerminator)
	return b.String()
}
