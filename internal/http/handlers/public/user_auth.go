package public

import (
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role" binding:"required"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	FarmName     string `json:"farm_name"`
	FarmLocation string `json:"farm_location"`
}

// UserView 用户响应结构（隐藏密码等敏感字段）
type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	FarmName     string `json:"farm_name,omitempty"`
	FarmLocation string `json:"farm_location,omitempty"`
	Status       string `json:"status"`
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         user.Role,
		Phone:        user.Phone,
		Address:      user.Address,
		FarmName:     user.FarmName,
		FarmLocation: user.FarmLocation,
		Status:       user.Status,
	}
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	user, err := h.AuthService.Register(service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		FarmName:     req.FarmName,
		FarmLocation: req.FarmLocation,
	})
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "注册失败")
		return
	}

	response.Success(c, gin.H{"user": toUserView(user)})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "登录失败")
		return
	}

	response.Success(c, gin.H{
		"user":       toUserView(user),
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}

// Profile 获取当前用户资料
func (h *Handler) Profile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserRepo.GetByID(uid)
	if err != nil || user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", err)
		return
	}

	response.Success(c, gin.H{"user": toUserView(user)})
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	DisplayName  string `json:"display_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	FarmName     string `json:"farm_name"`
	FarmLocation string `json:"farm_location"`
}

// UpdateProfile 更新当前用户资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	user, err := h.UserRepo.GetByID(uid)
	if err != nil || user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", err)
		return
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if user.IsFarmer() {
		if req.FarmName != "" {
			user.FarmName = req.FarmName
		}
		if req.FarmLocation != "" {
			user.FarmLocation = req.FarmLocation
		}
	}
	if err := h.UserRepo.Update(user); err != nil {
		respondError(c, response.CodeInternal, "更新资料失败", err)
		return
	}

	response.Success(c, gin.H{"user": toUserView(user)})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改当前用户密码
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	if err := h.AuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "修改密码失败")
		return
	}

	response.Success(c, gin.H{"changed": true})
}
