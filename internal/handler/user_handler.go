package handler

import (
	"net/http"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  service.UserService
	tokenTTL     time.Duration
	secureCookie bool
}

// NewUserHandler sets up the routing dependencies for User endpoints.
// secureCookie marks the access token cookie Secure (production).
func NewUserHandler(userService service.UserService, tokenTTL time.Duration, secureCookie bool) *UserHandler {
	return &UserHandler{userService: userService, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

// RegisterPublicRoutes binds the endpoints reachable without a token
func (h *UserHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
}

// RegisterRoutes binds the authenticated endpoints
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.GetMe)
	router.GET("/permissions/modules", h.GetPermissionModules)

	users := router.Group("/users")
	users.Use(middleware.RequireRole(model.LevelSuperAdmin))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUserByID)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PUT("/:id/permissions", h.SetPermissions)
	}
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password. The token is returned and also set as an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, res.Token, h.tokenTTL, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Logout clears the access token cookie
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out successfully"}))
}

// GetMe returns the authenticated user with its permissions
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// PermissionModules is the module tree together with its flat key list
type PermissionModules struct {
	Groups []permission.Group `json:"groups"`
	Keys   []string           `json:"keys"`
}

// GetPermissionModules returns the capability vocabulary for the permission editor
// @Summary      Permission modules
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=handler.PermissionModules}
// @Router       /api/permissions/modules [get]
func (h *UserHandler) GetPermissionModules(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, PermissionModules{
		Groups: permission.DefaultTree.Groups,
		Keys:   permission.ListKeys(permission.DefaultTree),
	}))
}

// ListUsers returns every user below Super Admin
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name or email"
// @Success      200     {object}  response.Response{data=[]service.UserResponse}
// @Failure      403     {object}  response.Response
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	q := listQuery(c)
	users, total, err := h.userService.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, users, q, total)
}

// CreateUser creates a User or Admin account
// @Summary      Create a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// GetUserByID returns one user
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateUser edits a user. A blank password keeps the current one.
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser removes a user
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User deleted successfully"}))
}

// SetPermissionsRequest replaces a user's permission map
type SetPermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" binding:"required"`
}

// SetPermissions replaces the capability map of a user
// @Summary      Set user permissions
// @Description  Replaces the whole permission map. Unknown keys are rejected.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "User ID"
// @Param        payload  body      handler.SetPermissionsRequest  true  "Permissions"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/users/{id}/permissions [put]
func (h *UserHandler) SetPermissions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SetPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.SetPermissions(c.Request.Context(), middleware.CurrentUser(c), id, req.Permissions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
