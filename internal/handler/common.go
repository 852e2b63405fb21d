package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/logger"
	"backoffice/internal/service"
	"backoffice/pkg/apperror"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps a service error onto the response envelope. Storage
// failures are logged with their cause and answered with a generic message.
func writeError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	message := apperror.PublicMessage(err)

	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}

	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		c.JSON(status, response.ValidationError(status, message, fields))
		return
	}
	c.JSON(status, response.Error(status, message))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// bindJSON decodes the body into req and answers 400 when it is malformed
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

// parseID reads the ":id" path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ID format"))
		return 0, false
	}
	return uint(id), true
}

// queryUint reads an optional positive integer query parameter
func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return 0, false
	}
	return uint(v), true
}

func listQuery(c *gin.Context) service.ListQuery {
	p := pagination.Parse(c)
	return service.ListQuery{Page: p.Page, Limit: p.Limit, Search: p.Search}
}

func writeList(c *gin.Context, data interface{}, q service.ListQuery, total int64) {
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, data, q.Page, q.Limit, total))
}
