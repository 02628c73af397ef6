// Admin HTTP handlers.
//
// This file exposes the read/maintenance endpoints backing the (external)
// admin console:
//   - GET  /notifications   (list, paginated)
//   - GET  /clicks          (list, paginated)
//   - GET  /dealers         (directory list)
//   - POST /dealers         (register/re-activate a dealer)
//
// Handlers are transport-thin: they validate input, call the repository
// layer, and translate results into HTTP responses.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
	"github.com/tiptophouse/diamond-webhook/internal/repo"
	"github.com/tiptophouse/diamond-webhook/internal/utils"
)

// AdminHandlers groups the console endpoints over a shared DB handle.
type AdminHandlers struct {
	DB *gorm.DB
}

// NewAdmin constructs the admin handler set.
func NewAdmin(db *gorm.DB) *AdminHandlers {
	return &AdminHandlers{DB: db}
}

//
// DTOs
//

// RegisterDealerRequest is the JSON payload for registering a dealer.
type RegisterDealerRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required" example:"123456789"`
	Name       string `json:"name"        binding:"required,min=1,max=255" example:"Acme Diamonds"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListNotificationsResponse wraps a page of notifications.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// ListClicksResponse wraps a page of CTA clicks.
type ListClicksResponse struct {
	Clicks     []domain.CTAClick `json:"clicks"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List dispatched notifications (paginated)
// @Tags        Notifications
// @Produce     json
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /notifications [get]
func (h *AdminHandlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	total, err := repo.CountNotifications(ctx, h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListNotificationsPage(ctx, h.DB, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{
		Notifications: items,
		Pagination:    paginate(page, pageSize, total),
	})
}

// ListClicks godoc
// @ID          listClicks
// @Summary     List CTA click records (paginated)
// @Tags        Clicks
// @Produce     json
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListClicksResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /clicks [get]
func (h *AdminHandlers) ListClicks(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	total, err := repo.CountCTAClicks(ctx, h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListCTAClicksPage(ctx, h.DB, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListClicksResponse{
		Clicks:     items,
		Pagination: paginate(page, pageSize, total),
	})
}

// ListDealers godoc
// @ID          listDealers
// @Summary     List the dealer directory
// @Tags        Dealers
// @Produce     json
// @Success     200  {array}   domain.Dealer
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /dealers [get]
func (h *AdminHandlers) ListDealers(c *gin.Context) {
	dealers, err := repo.ListDealers(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, dealers)
}

// RegisterDealer godoc
// @ID          registerDealer
// @Summary     Register a dealer (or re-activate an existing one)
// @Tags        Dealers
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterDealerRequest  true  "Dealer payload"
// @Success     201  {object}  domain.Dealer
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /dealers [post]
func (h *AdminHandlers) RegisterDealer(c *gin.Context) {
	var req RegisterDealerRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "telegram_id and name are required")
		return
	}

	dealer, err := repo.UpsertDealer(c.Request.Context(), h.DB, req.TelegramID, strings.TrimSpace(req.Name))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, dealer)
}
