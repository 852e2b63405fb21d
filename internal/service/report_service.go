package service

import (
	"context"
	"fmt"
	"sort"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportFilter selects the invoices a report covers. An empty Kind covers
// both kinds; dates are YYYY-MM-DD and inclusive.
type ReportFilter struct {
	Kind string
	From string
	To   string
}

// ReportRow is one kind, month and currency bucket
type ReportRow struct {
	Kind       string `json:"kind"`
	Month      string `json:"month"`
	Currency   string `json:"currency"`
	Count      int    `json:"count"`
	GrandTotal string `json:"grand_total"`
}

type ReportSummary struct {
	Rows       []ReportRow `json:"rows"`
	TotalCount int         `json:"total_count"`
}

// ReportFile is a generated workbook
type ReportFile struct {
	Filename string
	Body     []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ContentType of every exported report
func (ReportFile) ContentType() string { return xlsxContentType }

type ReportService interface {
	Summary(ctx context.Context, actor *model.User, f ReportFilter) (*ReportSummary, error)
	Export(ctx context.Context, actor *model.User, f ReportFilter) (*ReportFile, error)
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
}

func NewReportService(invoiceRepo repository.InvoiceRepository) ReportService {
	return &reportService{invoiceRepo: invoiceRepo}
}

func (s *reportService) Summary(ctx context.Context, actor *model.User, f ReportFilter) (*ReportSummary, error) {
	invoices, err := s.load(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return summarize(invoices), nil
}

func (s *reportService) Export(ctx context.Context, actor *model.User, f ReportFilter) (*ReportFile, error) {
	invoices, err := s.load(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	body, err := buildWorkbook(summarize(invoices), invoices)
	if err != nil {
		logger.FromContext(ctx).Error("report export failed", zap.Error(err))
		return nil, apperror.Storage("failed to export report", err)
	}

	name := "invoices-report"
	if f.Kind != "" {
		name = f.Kind + "-" + name
	}
	return &ReportFile{Filename: name + ".xlsx", Body: body}, nil
}

func (s *reportService) load(ctx context.Context, actor *model.User, f ReportFilter) ([]model.Invoice, error) {
	if err := permission.Require(actor, permission.InvoiceReportsRead); err != nil {
		return nil, err
	}
	if f.Kind != "" && f.Kind != model.InvoiceKindSample && f.Kind != model.InvoiceKindSales {
		return nil, apperror.ValidationField("kind", "Must be one of: sample sales")
	}
	from, to, err := parseRange(f.From, f.To)
	if err != nil {
		return nil, err
	}

	invoices, _, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{Kind: f.Kind, From: from, To: to})
	if err != nil {
		return nil, translate(err, "invoice", "load report")
	}
	return invoices, nil
}

type bucketKey struct {
	kind, month, currency string
}

// summarize groups invoices by kind, month and currency. Sample invoices
// carry no currency and are reported in USD.
func summarize(invoices []model.Invoice) *ReportSummary {
	counts := map[bucketKey]int{}
	totals := map[bucketKey]decimal.Decimal{}
	for _, inv := range invoices {
		k := bucketKey{kind: inv.Kind, month: inv.IssueDate.Format("2006-01"), currency: currencyOf(&inv)}
		counts[k]++
		totals[k] = totals[k].Add(inv.GrandTotal)
	}

	keys := make([]bucketKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].currency < keys[j].currency
	})

	summary := &ReportSummary{Rows: make([]ReportRow, 0, len(keys)), TotalCount: len(invoices)}
	for _, k := range keys {
		summary.Rows = append(summary.Rows, ReportRow{
			Kind:       k.kind,
			Month:      k.month,
			Currency:   k.currency,
			Count:      counts[k],
			GrandTotal: totals[k].StringFixed(2),
		})
	}
	return summary
}

func currencyOf(inv *model.Invoice) string {
	if inv.Currency == "" {
		return "USD"
	}
	return inv.Currency
}

var (
	summaryColumns = []string{"Kind", "Month", "Currency", "Invoices", "Grand Total"}
	invoiceColumns = []string{"Kind", "Invoice No", "Issue Date", "Shipper", "Customer", "Currency", "Subtotal", "Commercial Cost", "Discount", "Grand Total"}
)

// buildWorkbook writes a Summary sheet and an Invoices listing sheet
func buildWorkbook(summary *ReportSummary, invoices []model.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const invoiceSheet = "Invoices"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(invoiceSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	summaryRows := make([][]interface{}, 0, len(summary.Rows))
	for _, r := range summary.Rows {
		total, _ := decimal.NewFromString(r.GrandTotal)
		summaryRows = append(summaryRows, []interface{}{r.Kind, r.Month, r.Currency, r.Count, total.InexactFloat64()})
	}
	if err := writeSheet(f, summarySheet, summaryColumns, summaryRows, headerStyle); err != nil {
		return nil, err
	}

	invoiceRows := make([][]interface{}, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		shipper, customer := "", ""
		if inv.Shipper != nil {
			shipper = inv.Shipper.Name
		}
		if inv.Customer != nil {
			customer = inv.Customer.Name
		}
		invoiceRows = append(invoiceRows, []interface{}{
			inv.Kind,
			inv.InvoiceNo,
			inv.IssueDate.Format(dateLayout),
			shipper,
			customer,
			currencyOf(inv),
			inv.Subtotal.InexactFloat64(),
			inv.CommercialCostTotal.InexactFloat64(),
			inv.Discount.InexactFloat64(),
			inv.GrandTotal.InexactFloat64(),
		})
	}
	if err := writeSheet(f, invoiceSheet, invoiceColumns, invoiceRows, headerStyle); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]interface{}, headerStyle int) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i := range columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, 16); err != nil {
			return err
		}
	}
	return nil
}
