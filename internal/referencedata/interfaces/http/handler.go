package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
	"github.com/wyfcoding/tradelifecycle/pkg/response"
)

// ReferenceHandler 参考数据 HTTP 处理器，读接口公开，写接口需要 MAINTAIN_REFERENCE_DATA 权限
type ReferenceHandler struct {
	svc        *application.ReferenceService
	authorizer tradedomain.Authorizer
}

// NewReferenceHandler 创建 HTTP 处理器实例
func NewReferenceHandler(svc *application.ReferenceService, authorizer tradedomain.Authorizer) *ReferenceHandler {
	return &ReferenceHandler{svc: svc, authorizer: authorizer}
}

// RegisterRoutes 注册路由
func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/reference")
	{
		api.GET("/:kind", h.List)
		api.GET("/:kind/:idOrName", h.Get)
		api.PUT("/:kind", h.Upsert)
		api.PUT("/:kind/:idOrName/active", h.SetActive)
	}
}

// EntityResponse 参考数据响应
type EntityResponse struct {
	Kind        string `json:"kind"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

func toResponse(e *domain.Entity) EntityResponse {
	return EntityResponse{
		Kind:        string(e.Kind),
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Active:      e.Active,
	}
}

// List 列出某类参考数据
func (h *ReferenceHandler) List(c *gin.Context) {
	kind := tradedomain.ReferenceKind(c.Param("kind"))
	items, err := h.svc.List(c.Request.Context(), kind)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]EntityResponse, len(items))
	for i, e := range items {
		out[i] = toResponse(e)
	}
	response.Success(c, out)
}

// Get 按 ID 或名称获取
func (h *ReferenceHandler) Get(c *gin.Context) {
	kind := tradedomain.ReferenceKind(c.Param("kind"))
	e, err := h.svc.Get(c.Request.Context(), kind, c.Param("idOrName"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, toResponse(e))
}

// UpsertRequest 新增或更新参考数据请求
type UpsertRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=255"`
	Active      *bool  `json:"active"`
}

// Upsert 按名称新增或更新，未指定 active 时视为启用
func (h *ReferenceHandler) Upsert(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	kind := tradedomain.ReferenceKind(c.Param("kind"))
	if !domain.IsKnownKind(kind) || kind == tradedomain.RefUser {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unsupported reference kind: "+string(kind), "")
		return
	}
	e := &domain.Entity{Kind: kind, Name: req.Name, Description: req.Description, Active: req.Active == nil || *req.Active}
	if err := h.svc.Upsert(c.Request.Context(), e); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, toResponse(e))
}

// SetActiveRequest 启停请求
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive 启用或停用，停用的用户无法通过授权，只能由其他管理员重新启用
func (h *ReferenceHandler) SetActive(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	ctx := c.Request.Context()
	kind := tradedomain.ReferenceKind(c.Param("kind"))
	e, err := h.svc.Get(ctx, kind, c.Param("idOrName"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.SetActive(ctx, kind, e.ID, *req.Active); err != nil {
		h.writeError(c, err)
		return
	}
	e.Active = *req.Active
	response.Success(c, toResponse(e))
}

// authorize 校验调用者持有参考数据维护权限，失败时已写出响应
func (h *ReferenceHandler) authorize(c *gin.Context) bool {
	ctx := c.Request.Context()
	if err := h.authorizer.Authorize(ctx, contextx.GetUserID(ctx), tradedomain.OpMaintainReferenceData, tradedomain.TradeContext{}); err != nil {
		h.writeError(c, err)
		return false
	}
	return true
}

func (h *ReferenceHandler) writeError(c *gin.Context, err error) {
	msg := err.Error()
	var de *tradedomain.Error
	if errors.As(err, &de) && len(de.Messages) > 0 {
		msg = strings.Join(de.Messages, "; ")
	}
	switch {
	case tradedomain.IsNotFound(err), errors.Is(err, domain.ErrNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, msg, "")
	case tradedomain.IsValidation(err), errors.Is(err, domain.ErrUnknownKind):
		response.ErrorWithStatus(c, http.StatusBadRequest, msg, "")
	case tradedomain.IsUnauthorized(err):
		response.ErrorWithStatus(c, http.StatusForbidden, msg, "")
	default:
		logger.Error(c.Request.Context(), "reference request failed", "path", c.FullPath(), "error", err)
		response.Error(c, err)
	}
}
