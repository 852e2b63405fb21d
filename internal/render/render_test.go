package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) HTMLToPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

func sampleDoc() *InvoiceDocument {
	return &InvoiceDocument{
		Invoice: &model.Invoice{
			Kind:        model.InvoiceKindSample,
			InvoiceNo:   "250728001",
			IssueDate:   time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC),
			CourierName: "DHL",
			Footnotes:   "Samples of no commercial value",
			GrandTotal:  decimal.RequireFromString("1234.5"),
			Items: []model.InvoiceItem{
				{ArtNum: "A-1", Description: "Cotton tee", Quantity: 2, UnitPrice: decimal.RequireFromString("10"), SubTotal: decimal.RequireFromString("20")},
			},
		},
		Shipper:  &model.Shipper{Name: "Acme Export", Address: "Road 1\nDhaka", Phone: "0100"},
		Customer: &model.Customer{Name: "Buyer GmbH", Address: "Hamburg"},
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,234.50", Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", Money(decimal.Zero))
	assert.Equal(t, "25.50", Money(decimal.RequireFromString("25.499")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestRender_SampleHTML(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	doc, err := r.Render(context.Background(), sampleDoc(), FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "sample-invoice-250728001.html", doc.Filename)

	html := string(doc.Body)
	assert.Contains(t, html, "Acme Export")
	assert.Contains(t, html, "Road 1<br>")
	assert.Contains(t, html, "250728001")
	assert.Contains(t, html, "28 Jul 2025")
	assert.Contains(t, html, "Cotton tee")
	assert.Contains(t, html, "$1,234.50")
	assert.Contains(t, html, "Buyer GmbH")
}

func TestRender_SalesTerms(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	doc := sampleDoc()
	doc.Invoice.Kind = model.InvoiceKindSales
	doc.Invoice.TermsType = model.TermsTypeLC
	doc.Invoice.Currency = "EUR"
	doc.Banks = []model.Bank{{Name: "First Bank", SwiftCode: "FBKBDDH"}, {Name: "Second Bank"}}

	html, err := r.HTML(doc)
	require.NoError(t, err)
	assert.Contains(t, html, "PROFORMA INVOICE")
	assert.Contains(t, html, "PLEASE ADVISE THE L/C THROUGH OUR BANK AS ABOVE")
	assert.Contains(t, html, "Total Price (EUR)")
	assert.Less(t, strings.Index(html, "First Bank"), strings.Index(html, "Second Bank"))

	doc.Invoice.TermsType = model.TermsTypeTT
	html, err = r.HTML(doc)
	require.NoError(t, err)
	assert.Contains(t, html, "PLEASE ADVISE THE TT THROUGH OUR BANK AS ABOVE")
}

func TestRender_PreviewHasNoNumber(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	doc := sampleDoc()
	doc.Invoice.InvoiceNo = ""
	out, err := r.Render(context.Background(), doc, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "sample-invoice-preview.html", out.Filename)
	assert.Contains(t, string(out.Body), "PREVIEW")
}

func TestRender_PDF(t *testing.T) {
	_, err := func() (*Document, error) {
		r, err := New(nil)
		require.NoError(t, err)
		return r.Render(context.Background(), sampleDoc(), FormatPDF)
	}()
	assert.Error(t, err, "pdf needs a converter")

	conv := &fakePDF{}
	r, err := New(conv)
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleDoc(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, "sample-invoice-250728001.pdf", out.Filename)
	assert.Contains(t, conv.html, "Cotton tee")

	conv.err = errors.New("chrome crashed")
	_, err = r.Render(context.Background(), sampleDoc(), FormatPDF)
	assert.ErrorIs(t, err, conv.err)
}
