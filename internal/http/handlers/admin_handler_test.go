package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
	"github.com/tiptophouse/diamond-webhook/internal/repo"
)

func newAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:adminh_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newAdminRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := NewAdmin(db)
	r.GET("/notifications", admin.ListNotifications)
	r.GET("/clicks", admin.ListClicks)
	r.GET("/dealers", admin.ListDealers)
	r.POST("/dealers", admin.RegisterDealer)
	return r
}

func TestListNotifications_Pagination(t *testing.T) {
	db := newAdminTestDB(t)
	for i := 0; i < 25; i++ {
		if _, err := repo.CreateNotification(context.Background(), db, int64(i),
			domain.MessageTypeGroupDiamondRequest, "c", "", nil); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	r := newAdminRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?page=2&page_size=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Notifications) != 10 {
		t.Fatalf("page size = %d, want 10", len(resp.Notifications))
	}
	p := resp.Pagination
	if p.Page != 2 || p.Total != 25 || p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("pagination = %+v", p)
	}
}

func TestListNotifications_ClampsPageSize(t *testing.T) {
	db := newAdminTestDB(t)
	r := newAdminRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?page=-3&page_size=9999", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Page != 1 || resp.Pagination.PageSize != 100 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
}

func TestListClicks(t *testing.T) {
	db := newAdminTestDB(t)
	if _, err := repo.CreateCTAClick(context.Background(), db, 42, "offer_1", "private"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newAdminRouter(db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clicks", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListClicksResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Clicks) != 1 || resp.Clicks[0].Parameter != "offer_1" {
		t.Fatalf("clicks = %+v", resp.Clicks)
	}
}

func TestRegisterDealer(t *testing.T) {
	db := newAdminTestDB(t)
	r := newAdminRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dealers",
		strings.NewReader(`{"telegram_id":1001,"name":"  Acme Diamonds  "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var dealer domain.Dealer
	if err := json.Unmarshal(w.Body.Bytes(), &dealer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dealer.TelegramID != 1001 || dealer.Name != "Acme Diamonds" || !dealer.Active {
		t.Fatalf("dealer = %+v", dealer)
	}

	// Listed back in directory order.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dealers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var dealers []domain.Dealer
	if err := json.Unmarshal(w.Body.Bytes(), &dealers); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(dealers) != 1 || dealers[0].ID != dealer.ID {
		t.Fatalf("dealers = %+v", dealers)
	}
}

func TestRegisterDealer_BadPayload(t *testing.T) {
	db := newAdminTestDB(t)
	r := newAdminRouter(db)

	for _, body := range []string{
		`{}`,
		`{"telegram_id":1001}`,
		`{"telegram_id":1001,"name":"   "}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/dealers", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error envelope: %v", err)
		}
		if resp.Code != ErrCodeBadRequest {
			t.Fatalf("code = %q", resp.Code)
		}
	}
}
