package render

import (
	"html/template"
	"strings"
	"time"

	"backoffice/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

var funcMap = template.FuncMap{
	"money": Money,
	"date":  formatDate,
	"lines": lines,
}

// Money formats an amount with thousands grouping and two decimals,
// e.g. 1234.5 -> "1,234.50".
func Money(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2 Jan 2006")
}

// lines splits multi-line text such as addresses for <br> rendering
func lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type itemView struct {
	ArtNum         string
	Description    string
	Size           string
	HSCode         string
	Quantity       int
	UnitPrice      decimal.Decimal
	CommercialCost decimal.Decimal
	SubTotal       decimal.Decimal
}

type invoiceView struct {
	Invoice   *model.Invoice
	Shipper   *model.Shipper
	Customer  *model.Customer
	Banks     []model.Bank
	Items     []itemView
	IssueDate *time.Time
	IsLC      bool
	Currency  string
}

func newView(doc *InvoiceDocument) invoiceView {
	inv := doc.Invoice
	v := invoiceView{
		Invoice:   inv,
		Shipper:   doc.Shipper,
		Customer:  doc.Customer,
		Banks:     doc.Banks,
		IssueDate: &inv.IssueDate,
		IsLC:      inv.TermsType == model.TermsTypeLC,
		Currency:  inv.Currency,
	}
	if v.Shipper == nil {
		v.Shipper = inv.Shipper
	}
	if v.Customer == nil {
		v.Customer = inv.Customer
	}
	if v.Shipper == nil {
		v.Shipper = &model.Shipper{}
	}
	if v.Customer == nil {
		v.Customer = &model.Customer{}
	}
	if v.Currency == "" {
		v.Currency = "USD"
	}
	for _, it := range inv.Items {
		v.Items = append(v.Items, itemView{
			ArtNum:         it.ArtNum,
			Description:    it.Description,
			Size:           it.Size,
			HSCode:         it.HSCode,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			CommercialCost: it.CommercialCost,
			SubTotal:       it.SubTotal,
		})
	}
	return v
}
