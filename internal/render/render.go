// Package render turns invoices into printable HTML and PDF documents.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"backoffice/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "html" and "pdf"; empty means pdf
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// InvoiceDocument is everything printed on an invoice. Banks are only used
// by sales invoices and keep the shipper's bank order.
type InvoiceDocument struct {
	Invoice  *model.Invoice
	Shipper  *model.Shipper
	Customer *model.Customer
	Banks    []model.Bank
}

// Document is a rendered file ready to be sent to the client
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// PDFConverter prints an HTML page to PDF
type PDFConverter interface {
	HTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer renders invoices with the embedded templates
type Renderer struct {
	templates map[string]*template.Template
	pdf       PDFConverter
}

// New parses the templates. pdf may be nil, in which case only HTML is
// available.
func New(pdf PDFConverter) (*Renderer, error) {
	r := &Renderer{templates: map[string]*template.Template{}, pdf: pdf}
	for _, kind := range []string{model.InvoiceKindSample, model.InvoiceKindSales} {
		t, err := template.New(kind+".html").Funcs(funcMap).ParseFS(templateFS, "templates/"+kind+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.templates[kind] = t
	}
	return r, nil
}

// Render produces the document in the requested format
func (r *Renderer) Render(ctx context.Context, doc *InvoiceDocument, format Format) (*Document, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, fmt.Errorf("render: missing invoice")
	}
	html, err := r.HTML(doc)
	if err != nil {
		return nil, err
	}

	name := filename(doc.Invoice)
	switch format {
	case FormatHTML:
		return &Document{Filename: name + ".html", ContentType: "text/html; charset=utf-8", Body: []byte(html)}, nil
	case FormatPDF:
		if r.pdf == nil {
			return nil, fmt.Errorf("render: pdf output is not configured")
		}
		data, err := r.pdf.HTMLToPDF(ctx, html)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &Document{Filename: name + ".pdf", ContentType: "application/pdf", Body: data}, nil
	default:
		return nil, fmt.Errorf("render: unsupported format %q", format)
	}
}

// HTML executes the template of the invoice kind
func (r *Renderer) HTML(doc *InvoiceDocument) (string, error) {
	t, ok := r.templates[doc.Invoice.Kind]
	if !ok {
		return "", fmt.Errorf("render: no template for kind %q", doc.Invoice.Kind)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, newView(doc)); err != nil {
		return "", fmt.Errorf("execute %s template: %w", doc.Invoice.Kind, err)
	}
	return buf.String(), nil
}

func filename(inv *model.Invoice) string {
	no := inv.InvoiceNo
	if no == "" {
		no = "preview"
	}
	return inv.Kind + "-invoice-" + no
}
