// Package export writes claims as a bulk-claim CSV, one row per claimed support item.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"fjacquet/claimflow/internal/currencyutils"
	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/fileutils"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// ClaimRow is one bulk-claim line.
type ClaimRow struct {
	ClaimReference   string `csv:"ClaimReference"`
	ParticipantID    string `csv:"ParticipantID"`
	ProviderID       string `csv:"ProviderID"`
	SupportItem      string `csv:"SupportNumber"`
	SupportName      string `csv:"SupportName"`
	SupportStartDate string `csv:"SupportsDeliveredFrom"`
	SupportEndDate   string `csv:"SupportsDeliveredTo"`
	Quantity         string `csv:"Quantity"`
	UnitPrice        string `csv:"UnitPrice"`
	LineTotal        string `csv:"LineTotal"`
	GST              string `csv:"GST"`
	CreatedBy        string `csv:"ClaimedBy"`
}

// Rows flattens claims into rows. A claim without lines yields a single row carrying its total.
func Rows(claims []models.Claim) []ClaimRow {
	rows := make([]ClaimRow, 0, len(claims))
	for _, c := range claims {
		base := ClaimRow{
			ClaimReference: c.Reference,
			ParticipantID:  optionalID(c.ParticipantID),
			ProviderID:     optionalID(c.ProviderID),
			CreatedBy:      c.CreatedBy,
		}
		if len(c.Lines) == 0 {
			base.LineTotal = currencyutils.FormatMinorUnits(c.Total)
			rows = append(rows, base)
			continue
		}
		for _, l := range c.Lines {
			row := base
			row.SupportItem = l.ItemCode
			row.SupportName = l.ItemName
			row.SupportStartDate = dateutils.ToISODate(l.ServiceDate)
			row.SupportEndDate = row.SupportStartDate
			row.Quantity = l.Quantity.String()
			row.UnitPrice = currencyutils.FormatMinorUnits(l.UnitPrice)
			row.LineTotal = currencyutils.FormatMinorUnits(l.LineTotal)
			row.GST = currencyutils.FormatMinorUnits(l.GST)
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteClaims writes claims as CSV to w using delimiter.
func WriteClaims(w io.Writer, claims []models.Claim, delimiter rune) error {
	if claims == nil {
		return fmt.Errorf("cannot write nil claims to CSV")
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(Rows(claims), gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteClaimsToFile writes claims to path, creating its directory if needed.
func WriteClaimsToFile(path string, claims []models.Claim, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	file, err := fileutils.CreateFile(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteClaims(file, claims, delimiter); err != nil {
		return err
	}
	logger.Info("Wrote claim export",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(claims)))
	return nil
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
