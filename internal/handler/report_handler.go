package handler

import (
	"fmt"
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/permission"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(middleware.RequirePermission(permission.InvoiceReportsRead))
	{
		reports.GET("/invoices", h.GetInvoiceReport)
		reports.GET("/invoices/export", h.ExportInvoiceReport)
	}
}

func reportFilter(c *gin.Context) service.ReportFilter {
	return service.ReportFilter{
		Kind: c.Query("kind"),
		From: c.Query("from"),
		To:   c.Query("to"),
	}
}

// GetInvoiceReport aggregates invoice totals per kind, month and currency
// @Summary      Invoice report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        kind  query     string  false  "sample or sales (default both)"
// @Param        from  query     string  false  "Issue date from (YYYY-MM-DD)"
// @Param        to    query     string  false  "Issue date to (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=service.ReportSummary}
// @Failure      403   {object}  response.Response
// @Failure      422   {object}  response.Response
// @Router       /api/reports/invoices [get]
func (h *ReportHandler) GetInvoiceReport(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context(), middleware.CurrentUser(c), reportFilter(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ExportInvoiceReport downloads the report as an Excel workbook
// @Summary      Export invoice report
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        kind  query     string  false  "sample or sales (default both)"
// @Param        from  query     string  false  "Issue date from (YYYY-MM-DD)"
// @Param        to    query     string  false  "Issue date to (YYYY-MM-DD)"
// @Success      200   {file}    file
// @Failure      403   {object}  response.Response
// @Router       /api/reports/invoices/export [get]
func (h *ReportHandler) ExportInvoiceReport(c *gin.Context) {
	file, err := h.reportService.Export(c.Request.Context(), middleware.CurrentUser(c), reportFilter(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType(), file.Body)
}
