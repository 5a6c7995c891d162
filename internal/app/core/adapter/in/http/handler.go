package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/pkg/workerpool"
)

// Handler REST 入口
type Handler struct {
	core *usecase.CoreUseCase
}

func NewHandler(core *usecase.CoreUseCase) *Handler {
	return &Handler{core: core}
}

// CreateAccountRequest POST /v1/accounts
type CreateAccountRequest struct {
	AccountID string           `json:"accountId" binding:"required"`
	Balance   *decimal.Decimal `json:"balance" binding:"required"`
}

// TransferRequest POST /v1/accounts/transfer
type TransferRequest struct {
	FromAccount    string           `json:"fromAccount" binding:"required"`
	ToAccount      string           `json:"toAccount" binding:"required"`
	TransferAmount *decimal.Decimal `json:"transferAmount" binding:"required"`
}

// TransferResponse 轉帳成功後兩個帳戶的最新快照
type TransferResponse struct {
	TransferID  string         `json:"transferId"`
	FromAccount domain.Account `json:"fromAccount"`
	ToAccount   domain.Account `json:"toAccount"`
}

// SetupRoutes 註冊路由
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", h.Health)

	v1 := router.Group("/v1/accounts")
	{
		v1.POST("", h.CreateAccount)
		v1.POST("/transfer", h.Transfer)
		v1.GET("/:accountId", h.GetAccount)
	}
}

// CreateAccount handles POST /v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.core.CreateAccount(c.Request.Context(), req.AccountID, *req.Balance); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// GetAccount handles GET /v1/accounts/:accountId
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.core.GetAccount(c.Request.Context(), c.Param("accountId"))
	if errors.Is(err, domain.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// Transfer handles POST /v1/accounts/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transfer := domain.NewTransferRequest(req.FromAccount, req.ToAccount, *req.TransferAmount)
	result, err := h.core.TransferSync(c.Request.Context(), transfer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, TransferResponse{
		TransferID:  transfer.ID.String(),
		FromAccount: result.From,
		ToAccount:   result.To,
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	// 轉帳引用不存在的帳戶屬於業務錯誤，不是 404
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSchedulerSaturated):
		return http.StatusTooManyRequests
	case errors.Is(err, workerpool.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
