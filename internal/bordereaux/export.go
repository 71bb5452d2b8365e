package bordereaux

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

const (
	manifestSheet = "Manifest"
	// XLSXContentType is the media type of WriteManifest output.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Manifest is the printable view of a bordereau handed to the courier.
type Manifest struct {
	Number     string
	Courier    string
	PickupDate time.Time
	Status     enums.BordereauStatus
	Lines      []ManifestLine
	Totals     Totals
}

type ManifestLine struct {
	TrackingNumber string
	Customer       string
	City           string
	Phone          string
	CODAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
}

// FileName is the attachment name used for the export.
func (m *Manifest) FileName() string {
	return m.Number + ".xlsx"
}

func manifestFromModel(b *models.Bordereau) *Manifest {
	m := &Manifest{
		Number:     b.Number,
		PickupDate: b.PickupDate,
		Status:     b.Status,
		Totals:     ComputeTotals(b.Shipments),
	}
	if b.Courier != nil {
		m.Courier = fmt.Sprintf("%s (%s)", b.Courier.Name, b.Courier.Code)
	}
	for _, s := range b.Shipments {
		line := ManifestLine{
			TrackingNumber: s.TrackingNumber,
			CODAmount:      s.CODAmount,
			ShippingCost:   s.ShippingCost,
		}
		if s.Order != nil {
			line.Customer = s.Order.CustomerName
			line.City = s.Order.City
			line.Phone = s.Order.CustomerPhone
		}
		m.Lines = append(m.Lines, line)
	}
	return m
}

var manifestHeader = []any{"Tracking", "Customer", "City", "Phone", "COD", "Shipping"}

// WriteManifest renders m as a single-sheet workbook.
func WriteManifest(w io.Writer, m *Manifest) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := f.SetSheetName("Sheet1", manifestSheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Bordereau", m.Number},
		{"Courier", m.Courier},
		{"Pickup date", m.PickupDate.Format("2006-01-02")},
		{"Status", string(m.Status)},
		{},
		manifestHeader,
	}
	for _, line := range m.Lines {
		rows = append(rows, []any{
			line.TrackingNumber,
			line.Customer,
			line.City,
			line.Phone,
			line.CODAmount.InexactFloat64(),
			line.ShippingCost.InexactFloat64(),
		})
	}
	rows = append(rows, []any{
		"Total",
		fmt.Sprintf("%d shipments", m.Totals.Count),
		"",
		"",
		m.Totals.CODAmount.InexactFloat64(),
		m.Totals.Shipping.InexactFloat64(),
	})

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(manifestSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
