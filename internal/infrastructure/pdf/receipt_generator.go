// Package pdf renders the printable loan form for a request using Maroto v2.
//
// A5-ish single page layout:
//
//	┌──────────────────────────────────────────────┐
//	│  EQUIPMENT LOAN FORM        Request # + date │
//	│  ────────────────────────────────────────────│
//	│  RECIPIENT: name / phone                     │
//	│  ITEM: name, quantity or serial number       │
//	│  SCHEDULE: pickup / return due               │
//	│  ────────────────────────────────────────────│
//	│  HANDOVER confirmed? date     RETURN ...     │
//	│  Signature lines                             │
//	└──────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/itadmit/ipalsam-sub000/internal/application/receipts"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 20, Green: 60, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ receipts.Generator = (*MarotoReceiptGenerator)(nil)

// MarotoReceiptGenerator renders loan forms with Maroto v2.
type MarotoReceiptGenerator struct{}

// NewMarotoReceiptGenerator builds the generator.
func NewMarotoReceiptGenerator() *MarotoReceiptGenerator { return &MarotoReceiptGenerator{} }

// GenerateReceipt renders the PDF and returns its bytes.
func (g *MarotoReceiptGenerator) GenerateReceipt(_ context.Context, data receipts.ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Equipment Loan Form", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data.Request))
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(recipientRows(data)...)
	m.AddRows(itemRows(data)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(confirmationRows(data)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(req *entity.Request) core.Row {
	return row.New(12).Add(
		text.NewCol(7, "EQUIPMENT LOAN FORM", props.Text{
			Style: fontstyle.Bold, Size: 14, Color: colorPrimary,
		}),
		text.NewCol(5,
			fmt.Sprintf("Request %s\n%s", shortID(req.ID), req.CreatedAt.Format("02/01/2006 15:04")),
			props.Text{Align: align.Right, Size: 9, Color: colorGray},
		),
	)
}

func recipientRows(data receipts.ReceiptData) []core.Row {
	req := data.Request
	requester := ""
	if data.Requester != nil {
		requester = data.Requester.Name
	}
	return []core.Row{
		labelValueRow("Recipient", req.RecipientName),
		labelValueRow("Phone", req.RecipientPhone),
		labelValueRow("Requested by", requester),
	}
}

func itemRows(data receipts.ReceiptData) []core.Row {
	rows := []core.Row{
		labelValueRow("Item", data.ItemType.Name),
	}
	if data.Unit != nil {
		rows = append(rows, labelValueRow("Serial number", data.Unit.SerialNumber))
	} else {
		rows = append(rows, labelValueRow("Quantity", fmt.Sprintf("%d", data.Request.Quantity)))
	}
	if t := data.Request.ScheduledPickupAt; t != nil {
		rows = append(rows, labelValueRow("Scheduled pickup", t.Format("02/01/2006 15:04")))
	}
	if t := data.Request.ScheduledReturnAt; t != nil {
		rows = append(rows, labelValueRow("Return due", t.Format("02/01/2006 15:04")))
	}
	return rows
}

func confirmationRows(data receipts.ReceiptData) []core.Row {
	return []core.Row{
		row.New(8).Add(
			text.NewCol(6, "HANDOVER", props.Text{Style: fontstyle.Bold, Color: colorPrimary}),
			text.NewCol(6, "RETURN", props.Text{Style: fontstyle.Bold, Color: colorPrimary}),
		),
		row.New(8).Add(
			text.NewCol(6, signatureLine(data.Handover, data.Request.HandedOverAt != nil)),
			text.NewCol(6, signatureLine(data.Return, data.Request.ReturnedAt != nil)),
		),
		row.New(14).Add(
			text.NewCol(6, "Signature: ______________________", props.Text{Top: 6, Color: colorGray}),
			text.NewCol(6, "Signature: ______________________", props.Text{Top: 6, Color: colorGray}),
		),
	}
}

func signatureLine(sig *entity.Signature, done bool) string {
	switch {
	case sig == nil && !done:
		return "pending"
	case sig == nil:
		return "recorded"
	case sig.Confirmed:
		return fmt.Sprintf("confirmed %s", sig.CreatedAt.Format("02/01/2006 15:04"))
	default:
		return fmt.Sprintf("not confirmed, %s", sig.CreatedAt.Format("02/01/2006 15:04"))
	}
}

func labelValueRow(label, value string) core.Row {
	return row.New(7).Add(
		text.NewCol(3, label, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorGray}),
		text.NewCol(9, value, props.Text{Size: 10}),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
