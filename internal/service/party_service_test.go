package service

import (
	"context"
	"testing"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/internal/testutil"
	"backoffice/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_RequiresWritePermission(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewCustomerService(repository.NewCustomerRepository(db), notifier)

	writer := testutil.CreateUser(t, db, "writer@example.com", model.LevelUser, map[string]bool{permission.CustomersWrite: true})
	reader := testutil.CreateUser(t, db, "reader@example.com", model.LevelUser, map[string]bool{permission.CustomersRead: true})

	created, err := svc.Create(ctx, writer, CustomerRequest{Name: " Buyer GmbH ", Mobile: "0170 123", Address: "Hamburg"})
	require.NoError(t, err)
	assert.Equal(t, "Buyer GmbH", created.Name)
	assert.Equal(t, writer.ID, created.UserID)
	assert.Equal(t, []string{"Customer created."}, notifier.messages())

	_, err = svc.Create(ctx, reader, CustomerRequest{Name: "Other", Mobile: "0170 999"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	assert.Equal(t, 403, apperror.HTTPStatus(err))

	var count int64
	require.NoError(t, db.Model(&model.Customer{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCustomerService_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewCustomerService(repository.NewCustomerRepository(db), nil)
	admin := testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil)

	_, err := svc.Create(ctx, admin, CustomerRequest{Name: "  ", Mobile: ""})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "mobile")

	_, err = svc.Create(ctx, admin, CustomerRequest{Name: "A", Mobile: "0100"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CustomerRequest{Name: "B", Mobile: "0100"})
	require.Error(t, err)
	assert.Equal(t, "The mobile has already been taken", apperror.FieldsOf(err)["mobile"])
}

func TestCustomerService_Ownership(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewCustomerService(repository.NewCustomerRepository(db), nil)

	crud := map[string]bool{permission.CustomersRead: true, permission.CustomersWrite: true, permission.CustomersDelete: true}
	alice := testutil.CreateUser(t, db, "alice@example.com", model.LevelUser, crud)
	bob := testutil.CreateUser(t, db, "bob@example.com", model.LevelUser, crud)
	root := testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil)

	mine, err := svc.Create(ctx, alice, CustomerRequest{Name: "Alice Buyer", Mobile: "1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CustomerRequest{Name: "Bob Buyer", Mobile: "2"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, mine.ID, CustomerRequest{Name: "Hijacked", Mobile: "1"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	err = svc.Delete(ctx, bob, mine.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = svc.Get(ctx, bob, mine.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	list, total, err := svc.List(ctx, alice, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Alice Buyer", list[0].Name)

	_, total, err = svc.List(ctx, root, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	updated, err := svc.Update(ctx, root, mine.ID, CustomerRequest{Name: "Renamed", Mobile: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, alice.ID, updated.UserID, "owner is kept on update")

	require.NoError(t, svc.Delete(ctx, alice, mine.ID))
	_, err = svc.Get(ctx, alice, mine.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestShipperService_BankIDs(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	bankRepo := repository.NewBankRepository(db)
	svc := NewShipperService(repository.NewShipperRepository(db), bankRepo, nil)
	root := testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil)

	second := &model.Bank{UserID: root.ID, BankType: model.BankTypeShipper, Name: "Second"}
	first := &model.Bank{UserID: root.ID, BankType: model.BankTypeShipper, Name: "First"}
	require.NoError(t, bankRepo.Create(ctx, second))
	require.NoError(t, bankRepo.Create(ctx, first))

	req := ShipperRequest{Name: "Acme", Address: "Dhaka", Phone: "0100", BankIDs: []uint{first.ID, 999}}
	_, err := svc.Create(ctx, root, req)
	require.Error(t, err)
	assert.Equal(t, "Bank 999 does not exist", apperror.FieldsOf(err)["bank_ids[1]"])

	req.BankIDs = []uint{first.ID, second.ID}
	shipper, err := svc.Create(ctx, root, req)
	require.NoError(t, err)

	got, err := svc.Get(ctx, root, shipper.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, second.ID}, got.BankIDs)

	_, err = svc.Create(ctx, root, ShipperRequest{Name: "Other", Address: "x", Phone: "0100", Email: "not-an-email"})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "email")

	_, err = svc.Create(ctx, root, ShipperRequest{Name: "Other", Address: "x", Phone: "0100"})
	require.Error(t, err)
	assert.Contains(t, apperror.FieldsOf(err), "phone")
}

func TestBankService_TypeFilter(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewBankService(repository.NewBankRepository(db), nil)
	root := testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil)

	_, err := svc.Create(ctx, root, BankRequest{BankType: "Shipper", Name: "HSBC", SwiftCode: "hsbcbdDh"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, root, BankRequest{BankType: "factory", Name: "City Bank"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, root, BankRequest{BankType: "broker", Name: "X"})
	assert.Contains(t, apperror.FieldsOf(err), "bank_type")

	banks, total, err := svc.List(ctx, root, BankListQuery{BankType: model.BankTypeShipper})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "HSBCBDDH", banks[0].SwiftCode)

	_, _, err = svc.List(ctx, root, BankListQuery{BankType: "broker"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestCustomerService_DeleteReferencedByInvoice(t *testing.T) {
	env := newInvoiceEnv(t, nil, 1)
	ctx := context.Background()
	_, err := env.svc.Create(ctx, env.admin, model.InvoiceKindSample, env.request(line("A", 1, "1")))
	require.NoError(t, err)

	svc := NewCustomerService(repository.NewCustomerRepository(env.db), nil)
	err = svc.Delete(ctx, env.admin, env.customer.ID)
	require.Error(t, err)

	_, err = svc.Get(ctx, env.admin, env.customer.ID)
	assert.NoError(t, err, "customer survives a blocked delete")
}
