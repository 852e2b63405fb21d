package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/render"
	"backoffice/internal/repository"
	"backoffice/internal/testutil"
	ws "backoffice/internal/websocket"
	"backoffice/pkg/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ws.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n ws.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Message)
	}
	return out
}

// failingInvoiceRepo fails item writes on demand
type failingInvoiceRepo struct {
	repository.InvoiceRepository
	failCreateItems bool
	failReplace     bool
}

func (r *failingInvoiceRepo) CreateItems(ctx context.Context, items []model.InvoiceItem) error {
	if r.failCreateItems {
		return errors.New("disk full")
	}
	return r.InvoiceRepository.CreateItems(ctx, items)
}

func (r *failingInvoiceRepo) ReplaceItems(ctx context.Context, invoiceID uint, items []model.InvoiceItem) error {
	if r.failReplace {
		// delete first so the failure happens half way through the replacement
		if err := r.InvoiceRepository.DeleteItems(ctx, invoiceID); err != nil {
			return err
		}
		return errors.New("disk full")
	}
	return r.InvoiceRepository.ReplaceItems(ctx, invoiceID, items)
}

// scriptedNumberer returns the given numbers in order, repeating the last
type scriptedNumberer struct {
	numbers []string
	calls   int
}

func (n *scriptedNumberer) Next(context.Context, string) (string, error) {
	i := n.calls
	if i >= len(n.numbers) {
		i = len(n.numbers) - 1
	}
	n.calls++
	return n.numbers[i], nil
}

type invoiceEnv struct {
	db       *gorm.DB
	svc      InvoiceService
	repo     *failingInvoiceRepo
	notifier *recordingNotifier
	admin    *model.User
	shipper  *model.Shipper
	customer *model.Customer
}

func fixedClock() time.Time {
	return time.Date(2025, 7, 28, 9, 30, 0, 0, time.UTC)
}

func newInvoiceEnv(t *testing.T, numberer func(repository.InvoiceRepository) Numberer, retries int) *invoiceEnv {
	t.Helper()
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil)

	bank := &model.Bank{UserID: admin.ID, BankType: model.BankTypeShipper, Name: "First Bank", SwiftCode: "FBKBDDH"}
	require.NoError(t, db.Create(bank).Error)
	shipper := &model.Shipper{UserID: admin.ID, Name: "Acme Export", Address: "Dhaka", Phone: "0100", BankIDs: []uint{bank.ID}}
	require.NoError(t, db.Create(shipper).Error)
	customer := &model.Customer{UserID: admin.ID, Name: "Buyer GmbH", Mobile: "0200", Address: "Hamburg"}
	require.NoError(t, db.Create(customer).Error)

	repo := &failingInvoiceRepo{InvoiceRepository: repository.NewInvoiceRepository(db)}
	if numberer == nil {
		numberer = func(r repository.InvoiceRepository) Numberer { return NewDateSeedPolicy(r, fixedClock) }
	}
	renderer, err := render.New(nil)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewInvoiceService(InvoiceDeps{
		Invoices:        repo,
		Shippers:        repository.NewShipperRepository(db),
		Customers:       repository.NewCustomerRepository(db),
		Banks:           repository.NewBankRepository(db),
		Audit:           repository.NewAuditRepository(db),
		TxManager:       repository.NewTransactionManager(db),
		Numberer:        numberer(repo),
		Renderer:        renderer,
		Notifier:        notifier,
		ConflictRetries: retries,
	})
	return &invoiceEnv{db: db, svc: svc, repo: repo, notifier: notifier, admin: admin, shipper: shipper, customer: customer}
}

func (e *invoiceEnv) request(items ...InvoiceItemRequest) InvoiceRequest {
	return InvoiceRequest{
		ShipperID:  e.shipper.ID,
		CustomerID: e.customer.ID,
		IssueDate:  "2025-07-28",
		TermsType:  model.TermsTypeLC,
		Items:      items,
	}
}

func line(desc string, qty int, price string) InvoiceItemRequest {
	return InvoiceItemRequest{Description: desc, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func (e *invoiceEnv) countItems(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.InvoiceItem{}).Count(&n).Error)
	return n
}

func TestInvoiceService_DateSeedNumbering(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "250728001", first.InvoiceNo)

	second, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "250728002", second.InvoiceNo)

	// numbering is per kind
	sales, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSales, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "250728001", sales.InvoiceNo)
}

func TestInvoiceService_SequenceNumbering(t *testing.T) {
	env := newInvoiceEnv(t, func(r repository.InvoiceRepository) Numberer { return NewSequencePolicy(r, 100000) }, 1)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSales, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "100001", first.InvoiceNo)

	second, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "100002", second.InvoiceNo)
}

func TestInvoiceService_TotalsRecomputed(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	res, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(
		line("Tee", 2, "10.00"),
		line("Cap", 1, "5.50"),
	))
	require.NoError(t, err)
	assert.Equal(t, "25.50", res.Subtotal)
	assert.Equal(t, "25.50", res.GrandTotal)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "20.00", res.Items[0].SubTotal)
	assert.Equal(t, "5.50", res.Items[1].SubTotal)
	assert.Equal(t, 1, res.Items[0].Position)

	again, err := env.svc.Get(ctx, env.admin, model.InvoiceKindSample, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.GrandTotal, again.GrandTotal)
}

func TestInvoiceService_SalesTotals(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	req := env.request(
		InvoiceItemRequest{Description: "Jacket", Quantity: 10, UnitPrice: decimal.RequireFromString("12.5"), CommercialCost: decimal.RequireFromString("3")},
		InvoiceItemRequest{Description: "Sample swatch", Quantity: 0, UnitPrice: decimal.RequireFromString("1")},
	)
	req.Discount = decimal.RequireFromString("8")
	req.DeliveryDate = "2025-09-01"

	res, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSales, req)
	require.NoError(t, err)
	assert.Equal(t, "125.00", res.Subtotal)
	assert.Equal(t, "3.00", res.CommercialCostTotal)
	assert.Equal(t, "8.00", res.Discount)
	assert.Equal(t, "120.00", res.GrandTotal)
	assert.Equal(t, "USD", res.Currency)
	require.NotNil(t, res.DeliveryDate)
	assert.Equal(t, "2025-09-01", *res.DeliveryDate)
}

func TestInvoiceService_ItemCountBoundaries(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, apperror.FieldsOf(err), "items")

	res, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("Only", 1, "1")))
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestInvoiceService_KindRules(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	sample := env.request(
		line("Zero", 0, "1"),
		InvoiceItemRequest{Description: "Costly", Quantity: 1, UnitPrice: decimal.NewFromInt(1), CommercialCost: decimal.NewFromInt(2)},
	)
	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, sample)
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "items[0].quantity")
	assert.Contains(t, fields, "items[1].commercial_cost")

	sales := env.request(line("", 1, "-1"))
	sales.TermsType = ""
	sales.DeliveryDate = "2025-07-01"
	_, err = env.svc.Create(ctx, env.admin, model.InvoiceKindSales, sales)
	require.Error(t, err)
	fields = apperror.FieldsOf(err)
	assert.Contains(t, fields, "terms_type")
	assert.Contains(t, fields, "delivery_date")
	assert.Contains(t, fields, "items[0].description")
	assert.Contains(t, fields, "items[0].unit_price")

	_, err = env.svc.Create(ctx, env.admin, "credit", env.request(line("Tee", 1, "1")))
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Zero(t, env.countItems(t), "nothing written on validation failure")
}

func TestInvoiceService_DiscountCannotExceedTotal(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	req := env.request(line("Tee", 1, "10"))
	req.Discount = decimal.RequireFromString("10.01")

	_, err := env.svc.Create(context.Background(), env.admin, model.InvoiceKindSample, req)
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "discount")
}

func TestInvoiceService_AmountsLimitedToCents(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	_, err := env.svc.Preview(ctx, env.admin, model.InvoiceKindSample, env.request(line("Button", 3, "0.125")))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, "Must have at most 2 decimal places", apperror.FieldsOf(err)["items[0].unit_price"])

	sales := env.request(InvoiceItemRequest{
		Description:    "Jacket",
		Quantity:       1,
		UnitPrice:      decimal.RequireFromString("10"),
		CommercialCost: decimal.RequireFromString("0.001"),
	})
	sales.Discount = decimal.RequireFromString("1.005")
	_, err = env.svc.Create(ctx, env.admin, model.InvoiceKindSales, sales)
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "items[0].commercial_cost")
	assert.Contains(t, fields, "discount")
	assert.Zero(t, env.countItems(t))

	// trailing zeros are still whole cents
	res, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("Button", 3, "0.130")))
	require.NoError(t, err)

	stored, err := env.svc.Get(ctx, env.admin, model.InvoiceKindSample, res.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	item := stored.Items[0]
	shown := decimal.NewFromInt(int64(item.Quantity)).Mul(decimal.RequireFromString(item.UnitPrice))
	assert.Equal(t, "0.13", item.UnitPrice)
	assert.Equal(t, shown.StringFixed(2), item.SubTotal)
	assert.Equal(t, "0.39", stored.GrandTotal)
}

func TestInvoiceService_AmountUpperBounds(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(
		line("Bulk", 1000001, "1"),
		line("Pricey", 1, "1000000001"),
	))
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "items[0].quantity")
	assert.Contains(t, fields, "items[1].unit_price")

	// every line is in range but the sum does not fit the totals columns
	var items []InvoiceItemRequest
	for i := 0; i < 20; i++ {
		items = append(items, line("Bulk", 1000000, "1000000000"))
	}
	_, err = env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(items...))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, apperror.FieldsOf(err), "items")

	assert.Zero(t, env.countItems(t))
}

func TestInvoiceService_NotificationsCarryReadKey(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)

	_, err := env.svc.Create(context.Background(), env.admin, model.InvoiceKindSales, env.request(line("Tee", 1, "10")))
	require.NoError(t, err)

	env.notifier.mu.Lock()
	defer env.notifier.mu.Unlock()
	require.NotEmpty(t, env.notifier.sent)
	last := env.notifier.sent[len(env.notifier.sent)-1]
	assert.Equal(t, permission.InvoiceKey(model.InvoiceKindSales, permission.ActionRead), last.Capability)
}

func TestInvoiceService_MissingReferences(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	req := env.request(line("Tee", 1, "10"))
	req.ShipperID = 999

	_, err := env.svc.Create(context.Background(), env.admin, model.InvoiceKindSample, req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "shipper not found", err.Error())
}

func TestInvoiceService_UpdateReplacesItemsAndKeepsNumber(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(
		line("A", 1, "1"), line("B", 1, "1"), line("C", 1, "1"),
	))
	require.NoError(t, err)
	require.Equal(t, int64(3), env.countItems(t))

	updated, err := env.svc.Update(ctx, env.admin, model.InvoiceKindSample, created.ID, env.request(line("Only", 4, "2.5")))
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNo, updated.InvoiceNo)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Only", updated.Items[0].Description)
	assert.Equal(t, "10.00", updated.GrandTotal)
	assert.Equal(t, int64(1), env.countItems(t))
}

func TestInvoiceService_UpdateFailureKeepsOriginalItems(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1"), line("B", 1, "1")))
	require.NoError(t, err)

	env.repo.failReplace = true
	req := env.request(line("New", 1, "100"))
	req.Footnotes = "changed"
	_, err = env.svc.Update(ctx, env.admin, model.InvoiceKindSample, created.ID, req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindStorage))

	env.repo.failReplace = false
	got, err := env.svc.Get(ctx, env.admin, model.InvoiceKindSample, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "A", got.Items[0].Description)
	assert.Equal(t, "", got.Footnotes)
	assert.Equal(t, "2.00", got.GrandTotal)
}

func TestInvoiceService_CreateFailureLeavesNothing(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()
	env.repo.failCreateItems = true

	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	require.Error(t, err)

	var headers, audits int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&headers).Error)
	require.NoError(t, env.db.Model(&model.AuditLog{}).Count(&audits).Error)
	assert.Zero(t, headers)
	assert.Zero(t, audits)
	assert.Empty(t, env.notifier.messages(), "no notification for a rolled back write")
}

func TestInvoiceService_ConflictRetry(t *testing.T) {
	numberer := &scriptedNumberer{numbers: []string{"250728001", "250728002"}}
	env := newInvoiceEnv(t, func(repository.InvoiceRepository) Numberer { return numberer }, 1)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	require.NoError(t, err)
	assert.Equal(t, "250728001", first.InvoiceNo)

	// the scripted numberer hands out 250728002 next, so reset it to collide once
	numberer.calls = 0
	second, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("B", 1, "1")))
	require.NoError(t, err)
	assert.Equal(t, "250728002", second.InvoiceNo)
	assert.Equal(t, 2, numberer.calls)
}

func TestInvoiceService_RepeatedConflict(t *testing.T) {
	numberer := &scriptedNumberer{numbers: []string{"250728001"}}
	env := newInvoiceEnv(t, func(repository.InvoiceRepository) Numberer { return numberer }, 1)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("B", 1, "1")))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, 409, apperror.HTTPStatus(err))
	assert.Equal(t, int64(1), env.countItems(t))
}

func TestInvoiceService_Permissions(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	reader := testutil.CreateUser(t, env.db, "reader@example.com", model.LevelUser, map[string]bool{
		permission.InvoiceKey(model.InvoiceKindSample, permission.ActionRead): true,
	})

	_, err := env.svc.Create(ctx, reader, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	created, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, reader, model.InvoiceKindSample, created.ID)
	assert.NoError(t, err)

	// sample read does not grant sales read
	_, _, err = env.svc.List(ctx, reader, model.InvoiceKindSales, InvoiceListFilter{})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	err = env.svc.Delete(ctx, reader, model.InvoiceKindSample, created.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = env.svc.Get(ctx, nil, model.InvoiceKindSample, created.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestInvoiceService_DeleteAndKindIsolation(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1"), line("B", 1, "1")))
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, env.admin, model.InvoiceKindSales, created.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, env.svc.Delete(ctx, env.admin, model.InvoiceKindSample, created.ID))
	assert.Zero(t, env.countItems(t))

	err = env.svc.Delete(ctx, env.admin, model.InvoiceKindSample, created.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	msgs := env.notifier.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Sample invoice 250728001 created.", msgs[0])
	assert.Equal(t, "Sample invoice 250728001 deleted.", msgs[1])

	var actions []string
	require.NoError(t, env.db.Model(&model.AuditLog{}).Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{model.ActionCreateInvoice, model.ActionDeleteInvoice}, actions)
}

func TestInvoiceService_ListFilters(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
		require.NoError(t, err)
	}

	list, total, err := env.svc.List(ctx, env.admin, model.InvoiceKindSample, InvoiceListFilter{ListQuery: ListQuery{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	list, total, err = env.svc.List(ctx, env.admin, model.InvoiceKindSample, InvoiceListFilter{ListQuery: ListQuery{Search: "003"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "250728003", list[0].InvoiceNo)

	_, _, err = env.svc.List(ctx, env.admin, model.InvoiceKindSample, InvoiceListFilter{From: "28/07/2025"})
	assert.Contains(t, apperror.FieldsOf(err), "from")
}

func TestInvoiceService_PreviewWritesNothing(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	res, err := env.svc.Preview(ctx, env.admin, model.InvoiceKindSample, env.request(line("Tee", 2, "10"), line("Cap", 1, "5.5")))
	require.NoError(t, err)
	assert.Equal(t, "", res.InvoiceNo)
	assert.Equal(t, "25.50", res.GrandTotal)
	assert.Equal(t, "Acme Export", res.Shipper.Name)

	doc, err := env.svc.RenderPreview(ctx, env.admin, model.InvoiceKindSample, env.request(line("Tee", 2, "10")), render.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "PREVIEW")

	var n int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInvoiceService_RenderSalesWithBanks(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSales, env.request(line("Jacket", 3, "20")))
	require.NoError(t, err)

	doc, err := env.svc.Render(ctx, env.admin, model.InvoiceKindSales, created.ID, render.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "First Bank")
	assert.Contains(t, string(doc.Body), created.InvoiceNo)

	// no pdf converter configured
	_, err = env.svc.Render(ctx, env.admin, model.InvoiceKindSales, created.ID, render.FormatPDF)
	assert.True(t, apperror.Is(err, apperror.KindStorage))
}

func TestInvoiceService_StorageErrors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	svc := NewInvoiceService(InvoiceDeps{
		Invoices:  repository.NewInvoiceRepository(db),
		Shippers:  repository.NewShipperRepository(db),
		Customers: repository.NewCustomerRepository(db),
		Banks:     repository.NewBankRepository(db),
		Audit:     repository.NewAuditRepository(db),
		TxManager: repository.NewTransactionManager(db),
		Numberer:  NewDateSeedPolicy(repository.NewInvoiceRepository(db), fixedClock),
	})
	admin := &model.User{ID: 1, Level: model.LevelSuperAdmin}

	mock.ExpectQuery(`SELECT .* FROM "invoices"`).WillReturnError(errors.New("connection reset by peer"))
	_, err = svc.Get(context.Background(), admin, model.InvoiceKindSample, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindStorage))
	assert.Equal(t, "failed to load invoice, please try again", apperror.PublicMessage(err))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).WillReturnError(errors.New("connection reset by peer"))
	_, _, err = svc.List(context.Background(), admin, model.InvoiceKindSample, InvoiceListFilter{})
	assert.True(t, apperror.Is(err, apperror.KindStorage))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeTotals(t *testing.T) {
	items := []model.InvoiceItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("5.50"), CommercialCost: decimal.RequireFromString("1")},
	}

	sample, err := ComputeTotals(model.InvoiceKindSample, items, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, sample.Subtotal.Equal(decimal.RequireFromString("25.50")))
	assert.True(t, sample.CommercialCostTotal.IsZero(), "commercial cost only counts on sales")

	sales, err := ComputeTotals(model.InvoiceKindSales, items, decimal.RequireFromString("0.50"))
	require.NoError(t, err)
	assert.True(t, sales.GrandTotal.Equal(decimal.RequireFromString("26")))
	assert.True(t, items[0].SubTotal.Equal(decimal.NewFromInt(20)))

	again, err := ComputeTotals(model.InvoiceKindSales, items, decimal.RequireFromString("0.50"))
	require.NoError(t, err)
	assert.Equal(t, sales, again)

	_, err = ComputeTotals(model.InvoiceKindSample, nil, decimal.Zero)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = ComputeTotals(model.InvoiceKindSample, items, decimal.NewFromInt(-1))
	assert.Contains(t, apperror.FieldsOf(err), "discount")
}

func TestDateSeedPolicy(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewInvoiceRepository(db)
	p := NewDateSeedPolicy(repo, fixedClock)

	no, err := p.Next(context.Background(), model.InvoiceKindSample)
	require.NoError(t, err)
	assert.Equal(t, "250728001", no)
}
