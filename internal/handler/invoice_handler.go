package handler

import (
	"fmt"
	"net/http"
	"strings"

	"backoffice/internal/middleware"
	"backoffice/internal/permission"
	"backoffice/internal/render"
	"backoffice/internal/service"
	"backoffice/pkg/apperror"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler serves one invoice kind below /api/{kind}-invoices
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	kind           string
}

func NewInvoiceHandler(invoiceService service.InvoiceService, kind string) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, kind: kind}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	key := func(action string) gin.HandlerFunc {
		return middleware.RequirePermission(permission.InvoiceKey(h.kind, action))
	}

	invoices := router.Group("/" + h.kind + "-invoices")
	{
		invoices.GET("", key(permission.ActionRead), h.ListInvoices)
		invoices.POST("", key(permission.ActionWrite), h.CreateInvoice)
		invoices.POST("/preview", key(permission.ActionWrite), h.PreviewInvoice)
		invoices.GET("/:id", key(permission.ActionRead), h.GetInvoice)
		invoices.PUT("/:id", key(permission.ActionWrite), h.UpdateInvoice)
		invoices.DELETE("/:id", key(permission.ActionDelete), h.DeleteInvoice)
		invoices.GET("/:id/pdf", key(permission.ActionRead), h.DownloadInvoice)
	}
}

// ListInvoices returns a page of invoices of the handler's kind
// @Summary      List invoices
// @Description  Lists invoices newest first. Search matches the invoice number.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Param        search       query     string  false  "Invoice number contains"
// @Param        shipper_id   query     int     false  "Filter by shipper"
// @Param        customer_id  query     int     false  "Filter by customer"
// @Param        from         query     string  false  "Issue date from (YYYY-MM-DD)"
// @Param        to           query     string  false  "Issue date to (YYYY-MM-DD)"
// @Success      200          {object}  response.Response{data=[]service.InvoiceResponse}
// @Failure      403          {object}  response.Response
// @Failure      422          {object}  response.Response
// @Router       /api/sample-invoices [get]
// @Router       /api/sales-invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	shipperID, ok := queryUint(c, "shipper_id")
	if !ok {
		return
	}
	customerID, ok := queryUint(c, "customer_id")
	if !ok {
		return
	}

	q := listQuery(c)
	filter := service.InvoiceListFilter{
		ListQuery:  q,
		ShipperID:  shipperID,
		CustomerID: customerID,
		From:       c.Query("from"),
		To:         c.Query("to"),
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), middleware.CurrentUser(c), h.kind, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, invoices, q, total)
}

// CreateInvoice stores a new invoice with its items
// @Summary      Create invoice
// @Description  Creates an invoice. The number and all totals are computed by the server.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InvoiceRequest  true  "Invoice"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/sample-invoices [post]
// @Router       /api/sales-invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), middleware.CurrentUser(c), h.kind, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetInvoice returns one invoice with its items
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sample-invoices/{id} [get]
// @Router       /api/sales-invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), middleware.CurrentUser(c), h.kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice replaces the header and all items of an invoice
// @Summary      Update invoice
// @Description  Replaces the invoice header and items. The invoice number is kept.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Invoice ID"
// @Param        payload  body      service.InvoiceRequest  true  "Invoice"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/sample-invoices/{id} [put]
// @Router       /api/sales-invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), middleware.CurrentUser(c), h.kind, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes an invoice and its items
// @Summary      Delete invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sample-invoices/{id} [delete]
// @Router       /api/sales-invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), middleware.CurrentUser(c), h.kind, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": kindLabel(h.kind) + " invoice deleted successfully"}))
}

// DownloadInvoice renders a stored invoice
// @Summary      Download invoice
// @Description  Renders the invoice as a PDF (default) or as HTML.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Produce      html
// @Param        id      path      int     true   "Invoice ID"
// @Param        format  query     string  false  "pdf or html"
// @Success      200     {file}    file
// @Failure      404     {object}  response.Response
// @Failure      422     {object}  response.Response
// @Router       /api/sample-invoices/{id}/pdf [get]
// @Router       /api/sales-invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, apperror.ValidationField("format", "Must be one of: pdf, html"))
		return
	}

	doc, err := h.invoiceService.Render(c.Request.Context(), middleware.CurrentUser(c), h.kind, id, format)
	if err != nil {
		writeError(c, err)
		return
	}
	writeDocument(c, doc, format)
}

// PreviewInvoice computes an unsaved invoice
// @Summary      Preview invoice
// @Description  Validates the payload and returns the computed invoice (format=json, default) or its rendering (html, pdf). Nothing is stored.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Produce      html
// @Produce      application/pdf
// @Param        format   query     string                  false  "json, html or pdf"
// @Param        payload  body      service.InvoiceRequest  true   "Invoice"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/sample-invoices/preview [post]
// @Router       /api/sales-invoices/preview [post]
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	var req service.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	raw := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if raw == "" || raw == "json" {
		invoice, err := h.invoiceService.Preview(ctx, user, h.kind, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
		return
	}

	format, err := render.ParseFormat(raw)
	if err != nil {
		writeError(c, apperror.ValidationField("format", "Must be one of: json, pdf, html"))
		return
	}
	doc, err := h.invoiceService.RenderPreview(ctx, user, h.kind, req, format)
	if err != nil {
		writeError(c, err)
		return
	}
	writeDocument(c, doc, format)
}

func writeDocument(c *gin.Context, doc *render.Document, format render.Format) {
	disposition := "inline"
	if format == render.FormatPDF {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func kindLabel(kind string) string {
	if kind == "" {
		return kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
