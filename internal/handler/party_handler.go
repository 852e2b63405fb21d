package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/permission"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// --- Customers ---

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/customers")
	{
		customers.GET("", middleware.RequirePermission(permission.CustomersRead), h.ListCustomers)
		customers.POST("", middleware.RequirePermission(permission.CustomersWrite), h.CreateCustomer)
		customers.GET("/:id", middleware.RequirePermission(permission.CustomersRead), h.GetCustomer)
		customers.PUT("/:id", middleware.RequirePermission(permission.CustomersWrite), h.UpdateCustomer)
		customers.DELETE("/:id", middleware.RequirePermission(permission.CustomersDelete), h.DeleteCustomer)
	}
}

// ListCustomers returns the caller's customers
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name or mobile"
// @Success      200     {object}  response.Response{data=[]model.Customer}
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	q := listQuery(c)
	customers, total, err := h.customerService.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, customers, q, total)
}

// CreateCustomer adds a customer owned by the caller
// @Summary      Create customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CustomerRequest  true  "Customer"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      422      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// GetCustomer returns one customer
// @Summary      Get customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// UpdateCustomer edits a customer
// @Summary      Update customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Customer ID"
// @Param        payload  body      service.CustomerRequest  true  "Customer"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      422      {object}  response.Response
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// DeleteCustomer removes a customer that no invoice references
// @Summary      Delete customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Customer deleted successfully"}))
}

// --- Shippers ---

type ShipperHandler struct {
	shipperService service.ShipperService
}

func NewShipperHandler(shipperService service.ShipperService) *ShipperHandler {
	return &ShipperHandler{shipperService: shipperService}
}

func (h *ShipperHandler) RegisterRoutes(router *gin.RouterGroup) {
	shippers := router.Group("/shippers")
	{
		shippers.GET("", middleware.RequirePermission(permission.ShippersRead), h.ListShippers)
		shippers.POST("", middleware.RequirePermission(permission.ShippersWrite), h.CreateShipper)
		shippers.GET("/:id", middleware.RequirePermission(permission.ShippersRead), h.GetShipper)
		shippers.PUT("/:id", middleware.RequirePermission(permission.ShippersWrite), h.UpdateShipper)
		shippers.DELETE("/:id", middleware.RequirePermission(permission.ShippersDelete), h.DeleteShipper)
	}
}

// ListShippers returns the caller's shippers with their banks
// @Summary      List shippers
// @Tags         shippers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name or phone"
// @Success      200     {object}  response.Response{data=[]model.Shipper}
// @Router       /api/shippers [get]
func (h *ShipperHandler) ListShippers(c *gin.Context) {
	q := listQuery(c)
	shippers, total, err := h.shipperService.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, shippers, q, total)
}

// CreateShipper adds a shipper. bank_ids keep their order.
// @Summary      Create shipper
// @Tags         shippers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ShipperRequest  true  "Shipper"
// @Success      201      {object}  response.Response{data=model.Shipper}
// @Failure      422      {object}  response.Response
// @Router       /api/shippers [post]
func (h *ShipperHandler) CreateShipper(c *gin.Context) {
	var req service.ShipperRequest
	if !bindJSON(c, &req) {
		return
	}
	shipper, err := h.shipperService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shipper))
}

// GetShipper returns one shipper
// @Summary      Get shipper
// @Tags         shippers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Shipper ID"
// @Success      200  {object}  response.Response{data=model.Shipper}
// @Failure      404  {object}  response.Response
// @Router       /api/shippers/{id} [get]
func (h *ShipperHandler) GetShipper(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	shipper, err := h.shipperService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipper))
}

// UpdateShipper edits a shipper and replaces its bank list
// @Summary      Update shipper
// @Tags         shippers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Shipper ID"
// @Param        payload  body      service.ShipperRequest  true  "Shipper"
// @Success      200      {object}  response.Response{data=model.Shipper}
// @Failure      422      {object}  response.Response
// @Router       /api/shippers/{id} [put]
func (h *ShipperHandler) UpdateShipper(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.ShipperRequest
	if !bindJSON(c, &req) {
		return
	}
	shipper, err := h.shipperService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipper))
}

// DeleteShipper removes a shipper that no invoice references
// @Summary      Delete shipper
// @Tags         shippers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Shipper ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/shippers/{id} [delete]
func (h *ShipperHandler) DeleteShipper(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.shipperService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Shipper deleted successfully"}))
}

// --- Banks ---

type BankHandler struct {
	bankService service.BankService
}

func NewBankHandler(bankService service.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

func (h *BankHandler) RegisterRoutes(router *gin.RouterGroup) {
	banks := router.Group("/banks")
	{
		banks.GET("", middleware.RequirePermission(permission.BanksRead), h.ListBanks)
		banks.POST("", middleware.RequirePermission(permission.BanksWrite), h.CreateBank)
		banks.GET("/:id", middleware.RequirePermission(permission.BanksRead), h.GetBank)
		banks.PUT("/:id", middleware.RequirePermission(permission.BanksWrite), h.UpdateBank)
		banks.DELETE("/:id", middleware.RequirePermission(permission.BanksDelete), h.DeleteBank)
	}
}

// ListBanks returns the caller's banks
// @Summary      List banks
// @Tags         banks
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        search     query     string  false  "Search by name or SWIFT code"
// @Param        bank_type  query     string  false  "customer, factory or shipper"
// @Success      200        {object}  response.Response{data=[]model.Bank}
// @Failure      422        {object}  response.Response
// @Router       /api/banks [get]
func (h *BankHandler) ListBanks(c *gin.Context) {
	q := listQuery(c)
	banks, total, err := h.bankService.List(c.Request.Context(), middleware.CurrentUser(c), service.BankListQuery{
		ListQuery: q,
		BankType:  c.Query("bank_type"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, banks, q, total)
}

// CreateBank adds a bank
// @Summary      Create bank
// @Tags         banks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BankRequest  true  "Bank"
// @Success      201      {object}  response.Response{data=model.Bank}
// @Failure      422      {object}  response.Response
// @Router       /api/banks [post]
func (h *BankHandler) CreateBank(c *gin.Context) {
	var req service.BankRequest
	if !bindJSON(c, &req) {
		return
	}
	bank, err := h.bankService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bank))
}

// GetBank returns one bank
// @Summary      Get bank
// @Tags         banks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Bank ID"
// @Success      200  {object}  response.Response{data=model.Bank}
// @Failure      404  {object}  response.Response
// @Router       /api/banks/{id} [get]
func (h *BankHandler) GetBank(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	bank, err := h.bankService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, bank))
}

// UpdateBank edits a bank
// @Summary      Update bank
// @Tags         banks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Bank ID"
// @Param        payload  body      service.BankRequest  true  "Bank"
// @Success      200      {object}  response.Response{data=model.Bank}
// @Failure      422      {object}  response.Response
// @Router       /api/banks/{id} [put]
func (h *BankHandler) UpdateBank(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.BankRequest
	if !bindJSON(c, &req) {
		return
	}
	bank, err := h.bankService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, bank))
}

// DeleteBank removes a bank
// @Summary      Delete bank
// @Tags         banks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Bank ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/banks/{id} [delete]
func (h *BankHandler) DeleteBank(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.bankService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Bank deleted successfully"}))
}
