package bankledger

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const statementTimeLayout = "2006-01-02 15:04:05"

type Statement struct {
	Customer    Customer
	Balance     decimal.Decimal
	Entries     []LedgerEntry
	GeneratedAt time.Time
}

var statementCols = []struct {
	title string
	width float64
	align string
}{
	{"Date", 50, "L"},
	{"Type", 30, "L"},
	{"Amount", 45, "R"},
	{"Balance", 45, "R"},
}

// WritePDF renders the statement as a single-table A4 document.
func (st Statement) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Account statement "+st.Customer.AccountNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Account Statement", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	header := []string{
		"Account: " + st.Customer.AccountNumber,
		"Customer: " + st.Customer.Name + " (" + st.Customer.UserID + ")",
		"Generated: " + st.GeneratedAt.Format(statementTimeLayout),
	}
	for _, h := range header {
		pdf.CellFormat(0, 6, h, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range statementCols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range st.Entries {
		amount := e.Amount.StringFixed(2)
		if e.Kind == KindWithdraw {
			amount = "-" + amount
		}
		row := []string{
			e.Timestamp.Format(statementTimeLayout),
			string(e.Kind),
			amount,
			e.ResultingBalance.StringFixed(2),
		}
		for i, c := range statementCols {
			pdf.CellFormat(c.width, 6, row[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Current balance: %s", st.Balance.StringFixed(2)), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	return pdf.Output(w)
}
