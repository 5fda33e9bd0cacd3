package admin

import (
	"strconv"
	"strings"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListUsers 管理端用户列表
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询用户列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"users": users}, buildPagination(page, pageSize, total))
}

// AdminUpdateUserStatusRequest 更新用户状态请求
type AdminUpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateUserStatus 启用/禁用用户
func (h *Handler) AdminUpdateUserStatus(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "用户ID无效", nil)
		return
	}
	var req AdminUpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if req.Status != constants.UserStatusActive && req.Status != constants.UserStatusDisabled {
		respondError(c, response.CodeBadRequest, "状态取值无效", nil)
		return
	}

	user, err := h.UserRepo.GetByID(uint(userID))
	if err != nil || user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", err)
		return
	}
	user.Status = req.Status
	if err := h.UserRepo.Update(user); err != nil {
		respondError(c, response.CodeInternal, "更新用户状态失败", err)
		return
	}

	response.Success(c, gin.H{"user": user})
}
