package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"backoffice/internal/middleware"
	"backoffice/internal/permission"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type FactoryHandler struct {
	factoryService  service.FactoryService
	categoryService service.FactoryCategoryService
}

func NewFactoryHandler(factoryService service.FactoryService, categoryService service.FactoryCategoryService) *FactoryHandler {
	return &FactoryHandler{factoryService: factoryService, categoryService: categoryService}
}

func (h *FactoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	factories := router.Group("/factories")
	{
		factories.GET("", middleware.RequirePermission(permission.FactoriesRead), h.ListFactories)
		factories.POST("", middleware.RequirePermission(permission.FactoriesWrite), h.CreateFactory)
		factories.GET("/:id", middleware.RequirePermission(permission.FactoriesRead), h.GetFactory)
		factories.PUT("/:id", middleware.RequirePermission(permission.FactoriesWrite), h.UpdateFactory)
		factories.POST("/:id", middleware.RequirePermission(permission.FactoriesWrite), h.UpdateFactory) // multipart clients that cannot send PUT
		factories.DELETE("/:id", middleware.RequirePermission(permission.FactoriesDelete), h.DeleteFactory)
	}

	categories := router.Group("/factory-categories")
	{
		categories.GET("", middleware.RequirePermission(permission.FactoriesRead), h.ListCategories)
		categories.POST("", middleware.RequirePermission(permission.FactoriesWrite), h.CreateCategory)
		categories.GET("/:id", middleware.RequirePermission(permission.FactoriesRead), h.GetCategory)
		categories.PUT("/:id", middleware.RequirePermission(permission.FactoriesWrite), h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequirePermission(permission.FactoriesDelete), h.DeleteCategory)
	}
}

// ListFactories returns the caller's factories with category and documents
// @Summary      List factories
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Param        search       query     string  false  "Search by name or address"
// @Param        category_id  query     int     false  "Filter by category"
// @Success      200          {object}  response.Response{data=[]model.Factory}
// @Router       /api/factories [get]
func (h *FactoryHandler) ListFactories(c *gin.Context) {
	categoryID, ok := queryUint(c, "category_id")
	if !ok {
		return
	}
	q := listQuery(c)
	filter := service.FactoryListQuery{ListQuery: q}
	if categoryID != 0 {
		filter.CategoryID = &categoryID
	}

	factories, total, err := h.factoryService.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, factories, q, total)
}

// CreateFactory stores a factory and its uploaded documents
// @Summary      Create factory
// @Description  Accepts multipart/form-data with an optional "profile" PDF and repeated "certificates" and "images" files. JSON bodies without files are accepted too.
// @Tags         factories
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        name                 formData  string  true   "Name"
// @Param        address              formData  string  true   "Address"
// @Param        contact              formData  string  false  "Contact"
// @Param        category_id          formData  int     false  "Category ID"
// @Param        compliance           formData  string  false  "Compliance"
// @Param        production_capacity  formData  int     false  "Production capacity"
// @Param        profile              formData  file    false  "Profile (pdf)"
// @Param        certificates         formData  file    false  "Certificates (pdf, jpg, png)"
// @Param        images               formData  file    false  "Images (jpg, png, gif, webp)"
// @Success      201                  {object}  response.Response{data=model.Factory}
// @Failure      422                  {object}  response.Response
// @Failure      500                  {object}  response.Response
// @Router       /api/factories [post]
func (h *FactoryHandler) CreateFactory(c *gin.Context) {
	req, files, ok := bindFactory(c)
	if !ok {
		return
	}
	factory, err := h.factoryService.Create(c.Request.Context(), middleware.CurrentUser(c), req, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, factory))
}

// GetFactory returns one factory
// @Summary      Get factory
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Factory ID"
// @Success      200  {object}  response.Response{data=model.Factory}
// @Failure      404  {object}  response.Response
// @Router       /api/factories/{id} [get]
func (h *FactoryHandler) GetFactory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	factory, err := h.factoryService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, factory))
}

// UpdateFactory edits a factory. A new profile replaces the stored one;
// certificates and images are appended.
// @Summary      Update factory
// @Tags         factories
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        id                   path      int     true   "Factory ID"
// @Param        name                 formData  string  true   "Name"
// @Param        address              formData  string  true   "Address"
// @Param        contact              formData  string  false  "Contact"
// @Param        category_id          formData  int     false  "Category ID"
// @Param        compliance           formData  string  false  "Compliance"
// @Param        production_capacity  formData  int     false  "Production capacity"
// @Param        profile              formData  file    false  "Profile (pdf)"
// @Param        certificates         formData  file    false  "Certificates (pdf, jpg, png)"
// @Param        images               formData  file    false  "Images (jpg, png, gif, webp)"
// @Success      200                  {object}  response.Response{data=model.Factory}
// @Failure      422                  {object}  response.Response
// @Router       /api/factories/{id} [put]
// @Router       /api/factories/{id} [post]
func (h *FactoryHandler) UpdateFactory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, files, ok := bindFactory(c)
	if !ok {
		return
	}
	factory, err := h.factoryService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, factory))
}

// DeleteFactory removes a factory and its documents
// @Summary      Delete factory
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Factory ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/factories/{id} [delete]
func (h *FactoryHandler) DeleteFactory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.factoryService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Factory deleted successfully"}))
}

// ListCategories returns all factory categories
// @Summary      List factory categories
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name"
// @Success      200     {object}  response.Response{data=[]model.FactoryCategory}
// @Router       /api/factory-categories [get]
func (h *FactoryHandler) ListCategories(c *gin.Context) {
	q := listQuery(c)
	categories, total, err := h.categoryService.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, categories, q, total)
}

// CreateCategory adds a factory category
// @Summary      Create factory category
// @Tags         factories
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.FactoryCategoryRequest  true  "Category"
// @Success      201      {object}  response.Response{data=model.FactoryCategory}
// @Failure      422      {object}  response.Response
// @Router       /api/factory-categories [post]
func (h *FactoryHandler) CreateCategory(c *gin.Context) {
	var req service.FactoryCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// GetCategory returns one factory category
// @Summary      Get factory category
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Category ID"
// @Success      200  {object}  response.Response{data=model.FactoryCategory}
// @Failure      404  {object}  response.Response
// @Router       /api/factory-categories/{id} [get]
func (h *FactoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	category, err := h.categoryService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// UpdateCategory renames a factory category
// @Summary      Update factory category
// @Tags         factories
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                             true  "Category ID"
// @Param        payload  body      service.FactoryCategoryRequest  true  "Category"
// @Success      200      {object}  response.Response{data=model.FactoryCategory}
// @Failure      422      {object}  response.Response
// @Router       /api/factory-categories/{id} [put]
func (h *FactoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.FactoryCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory removes a factory category no factory uses
// @Summary      Delete factory category
// @Tags         factories
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/factory-categories/{id} [delete]
func (h *FactoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Factory category deleted successfully"}))
}

// bindFactory reads the factory fields from a JSON or multipart body and
// collects the uploaded files of a multipart one.
func bindFactory(c *gin.Context) (service.FactoryRequest, service.FactoryFiles, bool) {
	var req service.FactoryRequest
	var files service.FactoryFiles

	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return req, files, false
	}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return req, files, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err)
		return req, files, false
	}
	if profiles := form.File["profile"]; len(profiles) > 0 {
		u := toUpload(profiles[0])
		files.Profile = &u
	}
	files.Certificates = toUploads(form, "certificates")
	files.Images = toUploads(form, "images")
	return req, files, true
}

// toUploads accepts both "name" and "name[]" as field names
func toUploads(form *multipart.Form, field string) []service.Upload {
	var out []service.Upload
	for _, name := range []string{field, field + "[]"} {
		for _, fh := range form.File[name] {
			out = append(out, toUpload(fh))
		}
	}
	return out
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}
