package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/auth/application"
	"github.com/wyfcoding/musicstore/internal/auth/domain"
	userapp "github.com/wyfcoding/musicstore/internal/user/application"
	userdomain "github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

// ProfileCreator 注册成功后创建用户资料
type ProfileCreator interface {
	CreateProfile(ctx context.Context, cmd userapp.CreateProfileCommand) (*userdomain.UserProfile, error)
}

// Handler HTTP 处理器
type Handler struct {
	cmd          *application.AuthCommandService
	profiles     ProfileCreator
	cookieSecure bool
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(cmd *application.AuthCommandService, profiles ProfileCreator, cookieSecure bool) *Handler {
	return &Handler{cmd: cmd, profiles: profiles, cookieSecure: cookieSecure}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/auth")
	g.POST("/signup", h.SignUp)
	g.POST("/signin", h.SignIn)
	g.POST("/signout", h.SignOut)
	g.GET("/me", RequireIdentity(), h.Me)
}

// AddressRequest 地址
type AddressRequest struct {
	PostalCode  string `json:"postalCode"`
	Prefecture  string `json:"prefecture"`
	City        string `json:"city"`
	AddressLine string `json:"addressLine"`
}

// SignUpRequest 注册请求
type SignUpRequest struct {
	Email             string          `json:"email" binding:"required,email"`
	Password          string          `json:"password" binding:"required,min=8"`
	FirstName         string          `json:"firstName" binding:"required"`
	LastName          string          `json:"lastName" binding:"required"`
	FuriganaFirstName string          `json:"furiganaFirstName"`
	FuriganaLastName  string          `json:"furiganaLastName"`
	PhoneNumber       string          `json:"phoneNumber"`
	Gender            string          `json:"gender"`
	Address           AddressRequest  `json:"address"`
	ShippingAddress   *AddressRequest `json:"shippingAddress"`
}

// SignInRequest 登录请求
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp 注册账户并创建资料
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	account, err := h.cmd.Register(c.Request.Context(), application.RegisterCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		case errors.Is(err, domain.ErrWeakPassword):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		default:
			logger.Error(c.Request.Context(), "Failed to register account", "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to register account", "")
		}
		return
	}

	cmd := userapp.CreateProfileCommand{
		UserID: account.ID,
		Email:  account.Email,
		ProfileFields: userapp.ProfileFields{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			FuriganaFirstName: req.FuriganaFirstName,
			FuriganaLastName:  req.FuriganaLastName,
			PhoneNumber:       req.PhoneNumber,
			Gender:            req.Gender,
			Address:           userdomain.Address(req.Address),
		},
	}
	if req.ShippingAddress != nil {
		ship := userdomain.Address(*req.ShippingAddress)
		cmd.ShippingAddress = &ship
	}
	if _, err := h.profiles.CreateProfile(c.Request.Context(), cmd); err != nil {
		logger.Error(c.Request.Context(), "Failed to create profile", "user_id", account.ID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to create profile", "")
		return
	}

	response.SuccessWithStatus(c, http.StatusCreated, "created", gin.H{"user_id": account.ID, "email": account.Email})
}

// SignIn 登录并签发会话令牌
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := h.cmd.Login(c.Request.Context(), application.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error(), "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to sign in", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to sign in", "")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, res.Token, int(time.Until(res.ExpiresAt).Seconds()), "/", "", h.cookieSecure, true)
	response.Success(c, gin.H{
		"token":      res.Token,
		"type":       "Bearer",
		"user_id":    res.UserID,
		"expires_at": res.ExpiresAt.Unix(),
	})
}

// SignOut 登出
func (h *Handler) SignOut(c *gin.Context) {
	if token := extractToken(c); token != "" {
		if err := h.cmd.Logout(c.Request.Context(), token); err != nil {
			logger.Error(c.Request.Context(), "Failed to sign out", "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to sign out", "")
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	response.Success(c, nil)
}

// Me 当前身份
func (h *Handler) Me(c *gin.Context) {
	identity, _ := FromContext(c)
	response.Success(c, identity)
}
