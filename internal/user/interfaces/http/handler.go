package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
	"github.com/wyfcoding/musicstore/internal/user/application"
	"github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

// UserHandler HTTP 处理器
type UserHandler struct {
	cmd   *application.UserCommandService
	query *application.UserQueryService
}

// NewUserHandler 创建 HTTP 处理器实例
func NewUserHandler(cmd *application.UserCommandService, query *application.UserQueryService) *UserHandler {
	return &UserHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册需要登录的路由
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/me", authhttp.RequireIdentity())
	{
		me.GET("/profile", h.GetProfile)
		me.PUT("/profile", h.UpdateProfile)
	}
}

// RegisterAdminRoutes 注册后台路由
func (h *UserHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/users/:id", h.GetUser)
	admin.PUT("/users/:id/role", h.SetRole)
}

// UpdateProfileRequest 编辑资料请求
type UpdateProfileRequest struct {
	FirstName         string          `json:"firstName" binding:"required"`
	LastName          string          `json:"lastName" binding:"required"`
	FuriganaFirstName string          `json:"furiganaFirstName"`
	FuriganaLastName  string          `json:"furiganaLastName"`
	PhoneNumber       string          `json:"phoneNumber"`
	Gender            string          `json:"gender"`
	Address           domain.Address  `json:"address"`
	ShippingAddress   *domain.Address `json:"shippingAddress"`
}

// SetRoleRequest 修改角色请求
type SetRoleRequest struct {
	Role *int `json:"role" binding:"required"`
}

// GetProfile 查看自己的资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.query.GetProfile(c.Request.Context(), authhttp.UserID(c))
	if err != nil {
		h.fail(c, "Failed to get profile", err)
		return
	}
	response.Success(c, profile)
}

// UpdateProfile 编辑自己的资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	profile, err := h.cmd.UpdateProfile(c.Request.Context(), application.UpdateProfileCommand{
		UserID: authhttp.UserID(c),
		ProfileFields: application.ProfileFields{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			FuriganaFirstName: req.FuriganaFirstName,
			FuriganaLastName:  req.FuriganaLastName,
			PhoneNumber:       req.PhoneNumber,
			Gender:            req.Gender,
			Address:           req.Address,
			ShippingAddress:   req.ShippingAddress,
		},
	})
	if err != nil {
		h.fail(c, "Failed to update profile", err)
		return
	}
	response.Success(c, profile)
}

// GetUser 后台查看用户资料
func (h *UserHandler) GetUser(c *gin.Context) {
	profile, err := h.query.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get profile", err)
		return
	}
	response.Success(c, profile)
}

// SetRole 后台修改用户角色
func (h *UserHandler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.SetRole(c.Request.Context(), c.Param("id"), *req.Role); err != nil {
		h.fail(c, "Failed to set role", err)
		return
	}
	response.Success(c, gin.H{"user_id": c.Param("id"), "role": *req.Role})
}

func (h *UserHandler) fail(c *gin.Context, msg string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrInvalidRole):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrProfileNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logger.Error(c.Request.Context(), msg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, msg, "")
	}
}
