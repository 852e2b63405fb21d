package service

import (
	"context"
	"fmt"
	"strings"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"
	"backoffice/pkg/apperror"

	"go.uber.org/zap"
)

// --- DTOs ---

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Mobile  string `json:"mobile" validate:"required,max=50"`
	Address string `json:"address" validate:"max=2000"`
}

type ShipperRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=2000"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Website string `json:"website" validate:"omitempty,url,max=255"`
	Mobile  string `json:"mobile" validate:"max=50"`
	BankIDs []uint `json:"bank_ids" validate:"dive,gt=0"`
}

type BankRequest struct {
	BankType  string `json:"bank_type" validate:"required,oneof=customer factory shipper"`
	Name      string `json:"name" validate:"required,max=255"`
	SwiftCode string `json:"swift_code" validate:"max=50"`
	Address   string `json:"address" validate:"max=2000"`
	Phone     string `json:"phone" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
}

// BankListQuery adds the bank type filter to a list query
type BankListQuery struct {
	ListQuery
	BankType string
}

// --- Interfaces ---

type CustomerService interface {
	Create(ctx context.Context, actor *model.User, req CustomerRequest) (*model.Customer, error)
	Update(ctx context.Context, actor *model.User, id uint, req CustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*model.Customer, error)
	List(ctx context.Context, actor *model.User, q ListQuery) ([]model.Customer, int64, error)
}

type ShipperService interface {
	Create(ctx context.Context, actor *model.User, req ShipperRequest) (*model.Shipper, error)
	Update(ctx context.Context, actor *model.User, id uint, req ShipperRequest) (*model.Shipper, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*model.Shipper, error)
	List(ctx context.Context, actor *model.User, q ListQuery) ([]model.Shipper, int64, error)
}

type BankService interface {
	Create(ctx context.Context, actor *model.User, req BankRequest) (*model.Bank, error)
	Update(ctx context.Context, actor *model.User, id uint, req BankRequest) (*model.Bank, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*model.Bank, error)
	List(ctx context.Context, actor *model.User, q BankListQuery) ([]model.Bank, int64, error)
}

// --- Customers ---

type customerService struct {
	repo     repository.CustomerRepository
	notifier Notifier
}

func NewCustomerService(repo repository.CustomerRepository, notifier Notifier) CustomerService {
	return &customerService{repo: repo, notifier: notifierOrNop(notifier)}
}

func (s *customerService) Create(ctx context.Context, actor *model.User, req CustomerRequest) (*model.Customer, error) {
	if err := permission.Require(actor, permission.CustomersWrite); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkMobile(ctx, req.Mobile, 0); err != nil {
		return nil, err
	}

	customer := &model.Customer{UserID: actor.ID, Name: req.Name, Mobile: req.Mobile, Address: req.Address}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, uniqueField(err, "customer", "mobile", "create customer")
	}

	logger.FromContext(ctx).Info("customer created", zap.Uint("id", customer.ID))
	s.notifier.Notify(ctx, ws.Notification{Title: "Customer", Message: "Customer created.", Capability: permission.CustomersRead})
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, actor *model.User, id uint, req CustomerRequest) (*model.Customer, error) {
	if err := permission.Require(actor, permission.CustomersWrite); err != nil {
		return nil, err
	}
	customer, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkMobile(ctx, req.Mobile, id); err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.Mobile = req.Mobile
	customer.Address = req.Address
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, uniqueField(err, "customer", "mobile", "update customer")
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Customer", Message: "Customer updated.", Capability: permission.CustomersRead})
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Require(actor, permission.CustomersDelete); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "customer", "delete customer")
	}

	logger.FromContext(ctx).Info("customer deleted", zap.Uint("id", id))
	s.notifier.Notify(ctx, ws.Notification{Title: "Customer", Message: "Customer deleted.", Type: ws.TypeInfo, Capability: permission.CustomersRead})
	return nil
}

func (s *customerService) Get(ctx context.Context, actor *model.User, id uint) (*model.Customer, error) {
	if err := permission.Require(actor, permission.CustomersRead); err != nil {
		return nil, err
	}
	return s.owned(ctx, actor, id)
}

func (s *customerService) List(ctx context.Context, actor *model.User, q ListQuery) ([]model.Customer, int64, error) {
	if err := permission.Require(actor, permission.CustomersRead); err != nil {
		return nil, 0, err
	}
	customers, total, err := s.repo.List(ctx, q.filter(actor))
	if err != nil {
		return nil, 0, translate(err, "customer", "list customers")
	}
	return customers, total, nil
}

func (s *customerService) owned(ctx context.Context, actor *model.User, id uint) (*model.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "customer", "load customer")
	}
	if err := checkOwner(actor, customer.UserID); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) checkMobile(ctx context.Context, mobile string, excludeID uint) error {
	taken, err := s.repo.MobileTaken(ctx, mobile, excludeID)
	if err != nil {
		return translate(err, "customer", "check customer mobile")
	}
	if taken {
		return apperror.ValidationField("mobile", "The mobile has already been taken")
	}
	return nil
}

func (r CustomerRequest) normalized() CustomerRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Address = strings.TrimSpace(r.Address)
	return r
}

// --- Shippers ---

type shipperService struct {
	repo     repository.ShipperRepository
	bankRepo repository.BankRepository
	notifier Notifier
}

func NewShipperService(repo repository.ShipperRepository, bankRepo repository.BankRepository, notifier Notifier) ShipperService {
	return &shipperService{repo: repo, bankRepo: bankRepo, notifier: notifierOrNop(notifier)}
}

func (s *shipperService) Create(ctx context.Context, actor *model.User, req ShipperRequest) (*model.Shipper, error) {
	if err := permission.Require(actor, permission.ShippersWrite); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validate(ctx, req, 0); err != nil {
		return nil, err
	}

	shipper := &model.Shipper{UserID: actor.ID}
	req.apply(shipper)
	if err := s.repo.Create(ctx, shipper); err != nil {
		return nil, uniqueField(err, "shipper", "phone", "create shipper")
	}

	logger.FromContext(ctx).Info("shipper created", zap.Uint("id", shipper.ID))
	s.notifier.Notify(ctx, ws.Notification{Title: "Shipper", Message: "Shipper created.", Capability: permission.ShippersRead})
	return shipper, nil
}

func (s *shipperService) Update(ctx context.Context, actor *model.User, id uint, req ShipperRequest) (*model.Shipper, error) {
	if err := permission.Require(actor, permission.ShippersWrite); err != nil {
		return nil, err
	}
	shipper, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validate(ctx, req, id); err != nil {
		return nil, err
	}

	req.apply(shipper)
	if err := s.repo.Update(ctx, shipper); err != nil {
		return nil, uniqueField(err, "shipper", "phone", "update shipper")
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Shipper", Message: "Shipper updated.", Capability: permission.ShippersRead})
	return shipper, nil
}

func (s *shipperService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Require(actor, permission.ShippersDelete); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "shipper", "delete shipper")
	}

	logger.FromContext(ctx).Info("shipper deleted", zap.Uint("id", id))
	s.notifier.Notify(ctx, ws.Notification{Title: "Shipper", Message: "Shipper deleted.", Type: ws.TypeInfo, Capability: permission.ShippersRead})
	return nil
}

func (s *shipperService) Get(ctx context.Context, actor *model.User, id uint) (*model.Shipper, error) {
	if err := permission.Require(actor, permission.ShippersRead); err != nil {
		return nil, err
	}
	return s.owned(ctx, actor, id)
}

func (s *shipperService) List(ctx context.Context, actor *model.User, q ListQuery) ([]model.Shipper, int64, error) {
	if err := permission.Require(actor, permission.ShippersRead); err != nil {
		return nil, 0, err
	}
	shippers, total, err := s.repo.List(ctx, q.filter(actor))
	if err != nil {
		return nil, 0, translate(err, "shipper", "list shippers")
	}
	return shippers, total, nil
}

func (s *shipperService) owned(ctx context.Context, actor *model.User, id uint) (*model.Shipper, error) {
	shipper, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "shipper", "load shipper")
	}
	if err := checkOwner(actor, shipper.UserID); err != nil {
		return nil, err
	}
	return shipper, nil
}

// validate checks tags, phone uniqueness and that every bank id exists
func (s *shipperService) validate(ctx context.Context, req ShipperRequest, excludeID uint) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	fields := map[string]string{}
	taken, err := s.repo.PhoneTaken(ctx, req.Phone, excludeID)
	if err != nil {
		return translate(err, "shipper", "check shipper phone")
	}
	if taken {
		fields["phone"] = "The phone has already been taken"
	}

	if len(req.BankIDs) > 0 {
		banks, err := s.bankRepo.FindByIDs(ctx, req.BankIDs)
		if err != nil {
			return translate(err, "bank", "load banks")
		}
		found := make(map[uint]bool, len(banks))
		for _, b := range banks {
			found[b.ID] = true
		}
		for i, id := range req.BankIDs {
			if !found[id] {
				fields[fmt.Sprintf("bank_ids[%d]", i)] = fmt.Sprintf("Bank %d does not exist", id)
			}
		}
	}

	if len(fields) > 0 {
		return apperror.Validation("validation failed", fields)
	}
	return nil
}

func (r ShipperRequest) normalized() ShipperRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Website = strings.TrimSpace(r.Website)
	r.Mobile = strings.TrimSpace(r.Mobile)
	return r
}

func (r ShipperRequest) apply(s *model.Shipper) {
	s.Name = r.Name
	s.Address = r.Address
	s.Phone = r.Phone
	s.Email = r.Email
	s.Website = r.Website
	s.Mobile = r.Mobile
	s.BankIDs = append([]uint{}, r.BankIDs...)
}

// --- Banks ---

type bankService struct {
	repo     repository.BankRepository
	notifier Notifier
}

func NewBankService(repo repository.BankRepository, notifier Notifier) BankService {
	return &bankService{repo: repo, notifier: notifierOrNop(notifier)}
}

func (s *bankService) Create(ctx context.Context, actor *model.User, req BankRequest) (*model.Bank, error) {
	if err := permission.Require(actor, permission.BanksWrite); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	bank := &model.Bank{UserID: actor.ID}
	req.apply(bank)
	if err := s.repo.Create(ctx, bank); err != nil {
		return nil, translate(err, "bank", "create bank")
	}

	logger.FromContext(ctx).Info("bank created", zap.Uint("id", bank.ID), zap.String("bank_type", bank.BankType))
	s.notifier.Notify(ctx, ws.Notification{Title: "Bank", Message: "Bank created.", Capability: permission.BanksRead})
	return bank, nil
}

func (s *bankService) Update(ctx context.Context, actor *model.User, id uint, req BankRequest) (*model.Bank, error) {
	if err := permission.Require(actor, permission.BanksWrite); err != nil {
		return nil, err
	}
	bank, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	req.apply(bank)
	if err := s.repo.Update(ctx, bank); err != nil {
		return nil, translate(err, "bank", "update bank")
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Bank", Message: "Bank updated.", Capability: permission.BanksRead})
	return bank, nil
}

func (s *bankService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Require(actor, permission.BanksDelete); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "bank", "delete bank")
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Bank", Message: "Bank deleted.", Type: ws.TypeInfo, Capability: permission.BanksRead})
	return nil
}

func (s *bankService) Get(ctx context.Context, actor *model.User, id uint) (*model.Bank, error) {
	if err := permission.Require(actor, permission.BanksRead); err != nil {
		return nil, err
	}
	return s.owned(ctx, actor, id)
}

func (s *bankService) List(ctx context.Context, actor *model.User, q BankListQuery) ([]model.Bank, int64, error) {
	if err := permission.Require(actor, permission.BanksRead); err != nil {
		return nil, 0, err
	}
	if q.BankType != "" && q.BankType != model.BankTypeCustomer && q.BankType != model.BankTypeFactory && q.BankType != model.BankTypeShipper {
		return nil, 0, apperror.ValidationField("bank_type", "Must be one of: customer factory shipper")
	}
	banks, total, err := s.repo.List(ctx, q.filter(actor), q.BankType)
	if err != nil {
		return nil, 0, translate(err, "bank", "list banks")
	}
	return banks, total, nil
}

func (s *bankService) owned(ctx context.Context, actor *model.User, id uint) (*model.Bank, error) {
	bank, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "bank", "load bank")
	}
	if err := checkOwner(actor, bank.UserID); err != nil {
		return nil, err
	}
	return bank, nil
}

func (r BankRequest) normalized() BankRequest {
	r.BankType = strings.ToLower(strings.TrimSpace(r.BankType))
	r.Name = strings.TrimSpace(r.Name)
	r.SwiftCode = strings.ToUpper(strings.TrimSpace(r.SwiftCode))
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

func (r BankRequest) apply(b *model.Bank) {
	b.BankType = r.BankType
	b.Name = r.Name
	b.SwiftCode = r.SwiftCode
	b.Address = r.Address
	b.Phone = r.Phone
	b.Email = r.Email
}

// uniqueField reports a duplicate key on insert as a validation error on
// field, the same way the pre-insert check does.
func uniqueField(err error, entity, field, op string) error {
	if repository.IsDuplicateKey(err) {
		return apperror.ValidationField(field, "The "+field+" has already been taken")
	}
	return translate(err, entity, op)
}
