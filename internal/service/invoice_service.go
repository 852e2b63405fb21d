package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/render"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"
	"backoffice/pkg/apperror"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type InvoiceItemRequest struct {
	ArtNum         string          `json:"art_num" validate:"max=100"`
	Description    string          `json:"description" validate:"required,max=2000"`
	Size           string          `json:"size" validate:"max=100"`
	HSCode         string          `json:"hs_code" validate:"max=50"`
	Quantity       int             `json:"quantity" validate:"gte=0,lte=1000000"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"gte=0,lte=1000000000"`
	CommercialCost decimal.Decimal `json:"commercial_cost" validate:"gte=0,lte=1000000000"`
}

// InvoiceRequest is the body of create, update and preview. Totals are not
// accepted from clients; they are always recomputed from the items.
type InvoiceRequest struct {
	ShipperID  uint            `json:"shipper_id" validate:"required"`
	CustomerID uint            `json:"customer_id" validate:"required"`
	IssueDate  string          `json:"issue_date" validate:"required,datetime=2006-01-02"`
	Footnotes  string          `json:"footnotes" validate:"max=5000"`
	Discount   decimal.Decimal `json:"discount" validate:"gte=0,lte=1000000000"`

	// sample
	BuyerAccount   string `json:"buyer_account" validate:"max=255"`
	ShipmentTerms  string `json:"shipment_terms" validate:"omitempty,oneof=Collect Prepaid"`
	CourierName    string `json:"courier_name" validate:"max=255"`
	TrackingNumber string `json:"tracking_number" validate:"max=255"`

	// sales
	TermsType       string `json:"terms_type" validate:"omitempty,oneof=LC TT"`
	DeliveryDate    string `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode     string `json:"payment_mode" validate:"max=255"`
	TermsOfShipment string `json:"terms_of_shipment" validate:"max=255"`
	FobOrCif        string `json:"fob_or_cif" validate:"max=255"`
	Currency        string `json:"currency" validate:"omitempty,len=3,alpha"`

	Items []InvoiceItemRequest `json:"items" validate:"dive"`
}

// InvoiceListFilter narrows invoice listings. Dates are YYYY-MM-DD.
type InvoiceListFilter struct {
	ListQuery
	ShipperID  uint
	CustomerID uint
	From       string
	To         string
}

type InvoiceItemResponse struct {
	ID             uint   `json:"id,omitempty"`
	Position       int    `json:"position"`
	ArtNum         string `json:"art_num"`
	Description    string `json:"description"`
	Size           string `json:"size"`
	HSCode         string `json:"hs_code"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	CommercialCost string `json:"commercial_cost"`
	SubTotal       string `json:"sub_total"`
}

type PartyRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type InvoiceResponse struct {
	ID         uint      `json:"id,omitempty"`
	Kind       string    `json:"kind"`
	InvoiceNo  string    `json:"invoice_no"`
	ShipperID  uint      `json:"shipper_id"`
	Shipper    *PartyRef `json:"shipper,omitempty"`
	CustomerID uint      `json:"customer_id"`
	Customer   *PartyRef `json:"customer,omitempty"`
	IssueDate  string    `json:"issue_date"`
	Footnotes  string    `json:"footnotes"`
	CreatedBy  *uint     `json:"created_by"`

	BuyerAccount   string `json:"buyer_account,omitempty"`
	ShipmentTerms  string `json:"shipment_terms,omitempty"`
	CourierName    string `json:"courier_name,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`

	TermsType       string  `json:"terms_type,omitempty"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
	PaymentMode     string  `json:"payment_mode,omitempty"`
	TermsOfShipment string  `json:"terms_of_shipment,omitempty"`
	FobOrCif        string  `json:"fob_or_cif,omitempty"`
	Currency        string  `json:"currency,omitempty"`

	Subtotal            string `json:"subtotal"`
	CommercialCostTotal string `json:"commercial_cost_total"`
	Discount            string `json:"discount"`
	GrandTotal          string `json:"grand_total"`

	Items     []InvoiceItemResponse `json:"items"`
	CreatedAt string                `json:"created_at,omitempty"`
	UpdatedAt string                `json:"updated_at,omitempty"`
}

// DocumentRenderer turns an invoice into HTML or PDF
type DocumentRenderer interface {
	Render(ctx context.Context, doc *render.InvoiceDocument, format render.Format) (*render.Document, error)
}

// --- Interface ---

// InvoiceService manages both invoice kinds. Every operation takes the
// acting user and checks primary.invoices.{kind}-invoices.{action}.
type InvoiceService interface {
	Create(ctx context.Context, actor *model.User, kind string, req InvoiceRequest) (*InvoiceResponse, error)
	Update(ctx context.Context, actor *model.User, kind string, id uint, req InvoiceRequest) (*InvoiceResponse, error)
	Delete(ctx context.Context, actor *model.User, kind string, id uint) error
	Get(ctx context.Context, actor *model.User, kind string, id uint) (*InvoiceResponse, error)
	List(ctx context.Context, actor *model.User, kind string, filter InvoiceListFilter) ([]InvoiceResponse, int64, error)
	// Preview computes what Create would store without persisting anything
	Preview(ctx context.Context, actor *model.User, kind string, req InvoiceRequest) (*InvoiceResponse, error)
	Render(ctx context.Context, actor *model.User, kind string, id uint, format render.Format) (*render.Document, error)
	RenderPreview(ctx context.Context, actor *model.User, kind string, req InvoiceRequest, format render.Format) (*render.Document, error)
}

// InvoiceDeps are the collaborators of the invoice service
type InvoiceDeps struct {
	Invoices  repository.InvoiceRepository
	Shippers  repository.ShipperRepository
	Customers repository.CustomerRepository
	Banks     repository.BankRepository
	Audit     repository.AuditRepository
	TxManager repository.TransactionManager
	Numberer  Numberer
	Renderer  DocumentRenderer
	Notifier  Notifier
	// ConflictRetries is how often a number collision is retried
	ConflictRetries int
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	shipperRepo  repository.ShipperRepository
	customerRepo repository.CustomerRepository
	bankRepo     repository.BankRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	numberer     Numberer
	renderer     DocumentRenderer
	notifier     Notifier
	retries      int
}

func NewInvoiceService(d InvoiceDeps) InvoiceService {
	retries := d.ConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &invoiceService{
		invoiceRepo:  d.Invoices,
		shipperRepo:  d.Shippers,
		customerRepo: d.Customers,
		bankRepo:     d.Banks,
		auditRepo:    d.Audit,
		txManager:    d.TxManager,
		numberer:     d.Numberer,
		renderer:     d.Renderer,
		notifier:     notifierOrNop(d.Notifier),
		retries:      retries,
	}
}

// --- Implementation ---

func (s *invoiceService) Create(ctx context.Context, actor *model.User, kind string, req InvoiceRequest) (*InvoiceResponse, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionWrite); err != nil {
		return nil, err
	}
	draft, err := s.build(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	draft.invoice.CreatedBy = actorID(actor)

	var inv *model.Invoice
	for attempt := 0; ; attempt++ {
		inv = draft.fresh()
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			no, err := s.numberer.Next(txCtx, kind)
			if err != nil {
				return err
			}
			inv.InvoiceNo = no

			if err := s.invoiceRepo.CreateHeader(txCtx, inv); err != nil {
				return err
			}
			for i := range inv.Items {
				inv.Items[i].InvoiceID = inv.ID
			}
			if err := s.invoiceRepo.CreateItems(txCtx, inv.Items); err != nil {
				return err
			}
			return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateInvoice, "invoice", inv.ID, inv.InvoiceNo, auditInvoice(inv))
		})
		if err == nil || !repository.IsDuplicateKey(err) || attempt >= s.retries {
			break
		}
		logger.FromContext(ctx).Warn("invoice number collision, retrying",
			zap.String("kind", kind), zap.String("invoice_no", inv.InvoiceNo), zap.Int("attempt", attempt+1))
	}
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperror.Conflict("invoice number "+inv.InvoiceNo+" is already taken, please retry", err)
		}
		return nil, translate(err, "invoice", "save invoice")
	}

	logger.FromContext(ctx).Info("invoice created",
		zap.String("kind", kind), zap.String("invoice_no", inv.InvoiceNo), zap.Uint("id", inv.ID))
	s.notifier.Notify(ctx, ws.Notification{
		Title:      "Invoice",
		Message:    fmt.Sprintf("%s invoice %s created.", kindTitle(kind), inv.InvoiceNo),
		Type:       ws.TypeSuccess,
		Capability: permission.InvoiceKey(kind, permission.ActionRead),
	})

	return s.reload(ctx, kind, inv.ID)
}

func (s *invoiceService) Update(ctx context.Context, actor *model.User, kind string, id uint, req InvoiceRequest) (*InvoiceResponse, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionWrite); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	draft, err := s.build(ctx, kind, req)
	if err != nil {
		return nil, err
	}

	inv := draft.fresh()
	inv.ID = existing.ID
	inv.InvoiceNo = existing.InvoiceNo
	inv.CreatedBy = existing.CreatedBy
	inv.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.UpdateHeader(txCtx, inv); err != nil {
			return err
		}
		if err := s.invoiceRepo.ReplaceItems(txCtx, inv.ID, inv.Items); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateInvoice, "invoice", inv.ID, inv.InvoiceNo, auditInvoice(inv))
	})
	if err != nil {
		return nil, translate(err, "invoice", "update invoice")
	}

	logger.FromContext(ctx).Info("invoice updated", zap.String("kind", kind), zap.String("invoice_no", inv.InvoiceNo))
	s.notifier.Notify(ctx, ws.Notification{
		Title:      "Invoice",
		Message:    fmt.Sprintf("%s invoice %s updated.", kindTitle(kind), inv.InvoiceNo),
		Type:       ws.TypeSuccess,
		Capability: permission.InvoiceKey(kind, permission.ActionRead),
	})

	return s.reload(ctx, kind, inv.ID)
}

func (s *invoiceService) Delete(ctx context.Context, actor *model.User, kind string, id uint) error {
	if err := authorizeInvoice(actor, kind, permission.ActionDelete); err != nil {
		return err
	}
	existing, err := s.find(ctx, kind, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteInvoice, "invoice", id, existing.InvoiceNo,
			map[string]string{"kind": kind, "invoice_no": existing.InvoiceNo})
	})
	if err != nil {
		return translate(err, "invoice", "delete invoice")
	}

	s.notifier.Notify(ctx, ws.Notification{
		Title:      "Invoice",
		Message:    fmt.Sprintf("%s invoice %s deleted.", kindTitle(kind), existing.InvoiceNo),
		Type:       ws.TypeInfo,
		Capability: permission.InvoiceKey(kind, permission.ActionRead),
	})
	return nil
}

func (s *invoiceService) Get(ctx context.Context, actor *model.User, kind string, id uint) (*InvoiceResponse, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionRead); err != nil {
		return nil, err
	}
	inv, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, actor *model.User, kind string, f InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionRead); err != nil {
		return nil, 0, err
	}
	from, to, err := parseRange(f.From, f.To)
	if err != nil {
		return nil, 0, err
	}

	p := f.params()
	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		Kind:       kind,
		Search:     p.Search,
		ShipperID:  f.ShipperID,
		CustomerID: f.CustomerID,
		From:       from,
		To:         to,
		Offset:     p.Offset,
		Limit:      p.Limit,
	})
	if err != nil {
		return nil, 0, translate(err, "invoice", "list invoices")
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, *toInvoiceResponse(&invoices[i]))
	}
	return res, total, nil
}

func (s *invoiceService) Preview(ctx context.Context, actor *model.User, kind string, req InvoiceRequest) (*InvoiceResponse, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionWrite); err != nil {
		return nil, err
	}
	draft, err := s.build(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(draft.fresh()), nil
}

func (s *invoiceService) Render(ctx context.Context, actor *model.User, kind string, id uint, format render.Format) (*render.Document, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionRead); err != nil {
		return nil, err
	}
	inv, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, inv, format)
}

func (s *invoiceService) RenderPreview(ctx context.Context, actor *model.User, kind string, req InvoiceRequest, format render.Format) (*render.Document, error) {
	if err := authorizeInvoice(actor, kind, permission.ActionWrite); err != nil {
		return nil, err
	}
	draft, err := s.build(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, draft.fresh(), format)
}

// --- helpers ---

func (s *invoiceService) render(ctx context.Context, inv *model.Invoice, format render.Format) (*render.Document, error) {
	doc := &render.InvoiceDocument{Invoice: inv, Shipper: inv.Shipper, Customer: inv.Customer}
	if inv.Kind == model.InvoiceKindSales && inv.Shipper != nil {
		banks, err := s.bankRepo.FindByIDs(ctx, inv.Shipper.BankIDs)
		if err != nil {
			return nil, translate(err, "bank", "load shipper banks")
		}
		doc.Banks = banks
	}

	out, err := s.renderer.Render(ctx, doc, format)
	if err != nil {
		logger.FromContext(ctx).Error("invoice rendering failed",
			zap.String("invoice_no", inv.InvoiceNo), zap.String("format", string(format)), zap.Error(err))
		return nil, apperror.Storage("failed to render invoice", err)
	}
	return out, nil
}

// reload reads back a just-written invoice with its parties and items
func (s *invoiceService) reload(ctx context.Context, kind string, id uint) (*InvoiceResponse, error) {
	inv, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// find loads an invoice of kind; an invoice of the other kind is not found
func (s *invoiceService) find(ctx context.Context, kind string, id uint) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "invoice", "load invoice")
	}
	if inv.Kind != kind {
		return nil, apperror.NotFound("invoice")
	}
	return inv, nil
}

// invoiceDraft is a validated invoice ready to be written
type invoiceDraft struct {
	invoice *model.Invoice
	items   []model.InvoiceItem
}

// fresh returns a copy safe to insert; ids from a failed attempt are cleared
func (d invoiceDraft) fresh() *model.Invoice {
	inv := *d.invoice
	inv.ID = 0
	inv.Items = make([]model.InvoiceItem, len(d.items))
	copy(inv.Items, d.items)
	return &inv
}

// build validates req and resolves its references. It performs no writes,
// so every validation and not-found failure happens before side effects.
func (s *invoiceService) build(ctx context.Context, kind string, req InvoiceRequest) (*invoiceDraft, error) {
	verr := validateStruct(req)
	extra := kindRules(kind, &req)
	if verr != nil || len(extra) > 0 {
		if verr == nil {
			return nil, apperror.Validation("validation failed", extra)
		}
		return nil, mergeFields(verr, extra)
	}

	issue, _ := time.Parse(dateLayout, req.IssueDate)
	inv := &model.Invoice{
		Kind:       kind,
		ShipperID:  req.ShipperID,
		CustomerID: req.CustomerID,
		IssueDate:  issue,
		Footnotes:  strings.TrimSpace(req.Footnotes),
	}

	switch kind {
	case model.InvoiceKindSample:
		inv.BuyerAccount = strings.TrimSpace(req.BuyerAccount)
		inv.ShipmentTerms = req.ShipmentTerms
		inv.CourierName = strings.TrimSpace(req.CourierName)
		inv.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	case model.InvoiceKindSales:
		inv.TermsType = req.TermsType
		if req.DeliveryDate != "" {
			d, _ := time.Parse(dateLayout, req.DeliveryDate)
			inv.DeliveryDate = &d
		}
		inv.PaymentMode = strings.TrimSpace(req.PaymentMode)
		inv.TermsOfShipment = strings.TrimSpace(req.TermsOfShipment)
		inv.FobOrCif = strings.TrimSpace(req.FobOrCif)
		inv.Currency = strings.ToUpper(req.Currency)
		if inv.Currency == "" {
			inv.Currency = "USD"
		}
	}

	items := make([]model.InvoiceItem, 0, len(req.Items))
	for i, it := range req.Items {
		items = append(items, model.InvoiceItem{
			Position:       i + 1,
			ArtNum:         strings.TrimSpace(it.ArtNum),
			Description:    strings.TrimSpace(it.Description),
			Size:           strings.TrimSpace(it.Size),
			HSCode:         strings.TrimSpace(it.HSCode),
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			CommercialCost: it.CommercialCost,
		})
	}

	totals, err := ComputeTotals(kind, items, req.Discount)
	if err != nil {
		return nil, err
	}
	totals.apply(inv)

	shipper, err := s.shipperRepo.FindByID(ctx, req.ShipperID)
	if err != nil {
		return nil, translate(err, "shipper", "load shipper")
	}
	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, translate(err, "customer", "load customer")
	}
	inv.Shipper = shipper
	inv.Customer = customer

	return &invoiceDraft{invoice: inv, items: items}, nil
}

// kindRules checks the rules that differ between sample and sales invoices
func kindRules(kind string, req *InvoiceRequest) map[string]string {
	fields := map[string]string{}
	if len(req.Items) == 0 {
		fields["items"] = "At least one item is required"
	}

	// amounts are stored and printed with two decimals
	if !isCents(req.Discount) {
		fields["discount"] = centsMessage
	}
	for i, it := range req.Items {
		if !isCents(it.UnitPrice) {
			fields[itemField(i, "unit_price")] = centsMessage
		}
		if !isCents(it.CommercialCost) {
			fields[itemField(i, "commercial_cost")] = centsMessage
		}
	}

	switch kind {
	case model.InvoiceKindSample:
		for i, it := range req.Items {
			if it.Quantity < 1 {
				fields[itemField(i, "quantity")] = "Must be at least 1"
			}
			if !it.CommercialCost.IsZero() {
				fields[itemField(i, "commercial_cost")] = "Only allowed on sales invoices"
			}
		}
	case model.InvoiceKindSales:
		if req.TermsType == "" {
			fields["terms_type"] = "This field is required"
		}
		if req.DeliveryDate != "" && req.IssueDate != "" {
			issue, err1 := time.Parse(dateLayout, req.IssueDate)
			delivery, err2 := time.Parse(dateLayout, req.DeliveryDate)
			if err1 == nil && err2 == nil && delivery.Before(issue) {
				fields["delivery_date"] = "Must not be before the issue date"
			}
		}
	}
	return fields
}

const centsMessage = "Must have at most 2 decimal places"

func isCents(d decimal.Decimal) bool {
	return d.Round(2).Equal(d)
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}

func authorizeInvoice(actor *model.User, kind, action string) error {
	if kind != model.InvoiceKindSample && kind != model.InvoiceKindSales {
		return apperror.ValidationField("kind", "Must be one of: sample sales")
	}
	return permission.Require(actor, permission.InvoiceKey(kind, action))
}

func kindTitle(kind string) string {
	if kind == model.InvoiceKindSales {
		return "Sales"
	}
	return "Sample"
}

func parseRange(from, to string) (*time.Time, *time.Time, error) {
	fields := map[string]string{}
	var fromT, toT *time.Time
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			fields["from"] = "Must be a date formatted as " + dateLayout
		} else {
			fromT = &t
		}
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			fields["to"] = "Must be a date formatted as " + dateLayout
		} else {
			toT = &t
		}
	}
	if len(fields) > 0 {
		return nil, nil, apperror.Validation("invalid date range", fields)
	}
	return fromT, toT, nil
}

func auditInvoice(inv *model.Invoice) map[string]interface{} {
	return map[string]interface{}{
		"kind":        inv.Kind,
		"invoice_no":  inv.InvoiceNo,
		"shipper_id":  inv.ShipperID,
		"customer_id": inv.CustomerID,
		"items":       len(inv.Items),
		"grand_total": inv.GrandTotal.StringFixed(2),
	}
}

func toInvoiceResponse(inv *model.Invoice) *InvoiceResponse {
	res := &InvoiceResponse{
		ID:                  inv.ID,
		Kind:                inv.Kind,
		InvoiceNo:           inv.InvoiceNo,
		ShipperID:           inv.ShipperID,
		CustomerID:          inv.CustomerID,
		IssueDate:           inv.IssueDate.Format(dateLayout),
		Footnotes:           inv.Footnotes,
		CreatedBy:           inv.CreatedBy,
		BuyerAccount:        inv.BuyerAccount,
		ShipmentTerms:       inv.ShipmentTerms,
		CourierName:         inv.CourierName,
		TrackingNumber:      inv.TrackingNumber,
		TermsType:           inv.TermsType,
		PaymentMode:         inv.PaymentMode,
		TermsOfShipment:     inv.TermsOfShipment,
		FobOrCif:            inv.FobOrCif,
		Currency:            inv.Currency,
		Subtotal:            inv.Subtotal.StringFixed(2),
		CommercialCostTotal: inv.CommercialCostTotal.StringFixed(2),
		Discount:            inv.Discount.StringFixed(2),
		GrandTotal:          inv.GrandTotal.StringFixed(2),
		Items:               make([]InvoiceItemResponse, 0, len(inv.Items)),
	}
	if inv.Shipper != nil {
		res.Shipper = &PartyRef{ID: inv.Shipper.ID, Name: inv.Shipper.Name}
	}
	if inv.Customer != nil {
		res.Customer = &PartyRef{ID: inv.Customer.ID, Name: inv.Customer.Name}
	}
	if inv.DeliveryDate != nil {
		d := inv.DeliveryDate.Format(dateLayout)
		res.DeliveryDate = &d
	}
	if !inv.CreatedAt.IsZero() {
		res.CreatedAt = inv.CreatedAt.Format(timeLayout)
		res.UpdatedAt = inv.UpdatedAt.Format(timeLayout)
	}
	for _, it := range inv.Items {
		res.Items = append(res.Items, InvoiceItemResponse{
			ID:             it.ID,
			Position:       it.Position,
			ArtNum:         it.ArtNum,
			Description:    it.Description,
			Size:           it.Size,
			HSCode:         it.HSCode,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice.StringFixed(2),
			CommercialCost: it.CommercialCost.StringFixed(2),
			SubTotal:       it.SubTotal.StringFixed(2),
		})
	}
	return res
}
