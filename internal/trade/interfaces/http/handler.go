// Package http 交易生命周期与现金流试算的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradelifecycle/internal/trade/application"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
	"github.com/wyfcoding/tradelifecycle/pkg/response"
)

// TradeHandler HTTP 处理器
type TradeHandler struct {
	svc *application.TradeService
}

// NewTradeHandler 创建 HTTP 处理器实例
func NewTradeHandler(svc *application.TradeService) *TradeHandler {
	return &TradeHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *TradeHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/trades")
	{
		api.POST("", h.CreateTrade)
		api.GET("", h.ListTrades)
		api.GET("/:id", h.GetTrade)
		api.PUT("/:id", h.AmendTrade)
		api.POST("/:id/terminate", h.TerminateTrade)
		api.POST("/:id/cancel", h.CancelTrade)
	}
	router.POST("/api/v1/cashflows/generate", h.GenerateCashflows)
}

// CreateTrade 新建交易
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	trade, err := h.svc.CreateTrade(c.Request.Context(), req.command())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, trade)
}

// AmendTrade 修订交易，生成新版本
func (h *TradeHandler) AmendTrade(c *gin.Context) {
	tradeID, ok := tradeIDParam(c)
	if !ok {
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	trade, err := h.svc.AmendTrade(c.Request.Context(), tradeID, req.command())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trade)
}

// TerminateTrade 终止交易
func (h *TradeHandler) TerminateTrade(c *gin.Context) {
	tradeID, ok := tradeIDParam(c)
	if !ok {
		return
	}
	trade, err := h.svc.TerminateTrade(c.Request.Context(), tradeID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trade)
}

// CancelTrade 取消交易
func (h *TradeHandler) CancelTrade(c *gin.Context) {
	tradeID, ok := tradeIDParam(c)
	if !ok {
		return
	}
	trade, err := h.svc.CancelTrade(c.Request.Context(), tradeID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trade)
}

// GetTrade 查询活跃版本
func (h *TradeHandler) GetTrade(c *gin.Context) {
	tradeID, ok := tradeIDParam(c)
	if !ok {
		return
	}
	trade, err := h.svc.GetTradeByID(c.Request.Context(), tradeID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trade)
}

// ListTrades 按状态列出活跃交易，status 可为 ID 或名称
func (h *TradeHandler) ListTrades(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "status query parameter is required", "")
		return
	}
	ref := domain.ByName(status)
	if id, err := strconv.ParseInt(status, 10, 64); err == nil && id > 0 {
		ref = domain.ByID(id)
	}
	trades, err := h.svc.ListTradesByStatus(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trades)
}

// GenerateCashflows 现金流试算
func (h *TradeHandler) GenerateCashflows(c *gin.Context) {
	var req CashflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	flows, err := h.svc.GenerateCashflows(c.Request.Context(), req.Leg.command(), parseDate(req.StartDate), parseDate(req.MaturityDate))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, flows)
}

func tradeIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid trade id: "+c.Param("id"), "")
		return 0, false
	}
	return id, true
}

// ErrorDetails 领域错误的响应详情
type ErrorDetails struct {
	Kind      domain.ErrorKind `json:"kind"`
	Field     string           `json:"field,omitempty"`
	Value     string           `json:"value,omitempty"`
	Messages  []string         `json:"messages"`
	Retryable bool             `json:"retryable"`
}

var statusByKind = map[domain.ErrorKind]int{
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindInactiveReference:   http.StatusUnprocessableEntity,
	domain.KindValidation:          http.StatusBadRequest,
	domain.KindUnauthorized:        http.StatusForbidden,
	domain.KindConcurrencyConflict: http.StatusConflict,
}

// writeError 领域错误按类别映射状态码，其余按 500 处理
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := statusByKind[de.Kind]
		if ok {
			response.ErrorWithStatus(c, status, strings.Join(de.Messages, "; "), ErrorDetails{
				Kind:      de.Kind,
				Field:     de.Field,
				Value:     de.Value,
				Messages:  de.Messages,
				Retryable: de.Retryable(),
			})
			return
		}
	}
	logger.Error(c.Request.Context(), "trade request failed", "path", c.FullPath(), "error", err)
	response.Error(c, err)
}
