package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// ---------- notifications ----------

func TestCreateAndCountNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := CreateNotification(ctx, db, 1001, domain.MessageTypeGroupDiamondRequest, "summary", `{"k":"v"}`, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == "" || n.Status != domain.NotificationStatusPending {
		t.Fatalf("notification = %+v", n)
	}

	total, err := CountNotifications(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("count = %d, want 1", total)
	}
}

func TestCreateNotification_DedupeKeyUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	key := "abc123"
	if _, err := CreateNotification(ctx, db, 1, "t", "c", "", &key); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := CreateNotification(ctx, db, 1, "t", "c", "", &key); err == nil {
		t.Fatal("second insert with same dedupe key must fail")
	}

	// NULL keys never collide.
	if _, err := CreateNotification(ctx, db, 1, "t", "c", "", nil); err != nil {
		t.Fatalf("nil-key insert: %v", err)
	}
	if _, err := CreateNotification(ctx, db, 1, "t", "c", "", nil); err != nil {
		t.Fatalf("second nil-key insert: %v", err)
	}
}

func TestListNotificationsPage_OrderAndPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		n := &domain.Notification{
			ID:             uuid.NewString(),
			TelegramID:     int64(i),
			MessageType:    domain.MessageTypeGroupDiamondRequest,
			MessageContent: "c",
			Status:         domain.NotificationStatusPending,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(n).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	page, err := ListNotificationsPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page = %d rows, want 2", len(page))
	}
	// Newest first.
	if page[0].TelegramID != 4 || page[1].TelegramID != 3 {
		t.Fatalf("order = %d, %d, want 4, 3", page[0].TelegramID, page[1].TelegramID)
	}

	page, err = ListNotificationsPage(ctx, db, 4, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(page) != 1 || page[0].TelegramID != 0 {
		t.Fatalf("last page = %+v", page)
	}
}

// ---------- cta clicks ----------

func TestCreateAndListCTAClicks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateCTAClick(ctx, db, 42, "offer_1", "private"); err != nil {
		t.Fatalf("create: %v", err)
	}
	total, err := CountCTAClicks(ctx, db)
	if err != nil || total != 1 {
		t.Fatalf("count = %d, err = %v", total, err)
	}

	page, err := ListCTAClicksPage(ctx, db, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].Parameter != "offer_1" || page[0].ChatType != "private" {
		t.Fatalf("page = %+v", page)
	}
}

// ---------- dealers ----------

func TestUpsertDealer(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d, err := UpsertDealer(ctx, db, 1001, "Alpha Diamonds")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !d.Active || d.Name != "Alpha Diamonds" {
		t.Fatalf("dealer = %+v", d)
	}

	// Deactivate out of band, then upsert again: renamed and re-activated,
	// same row.
	if err := db.Model(&domain.Dealer{}).Where("telegram_id = ?", int64(1001)).
		Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	d2, err := UpsertDealer(ctx, db, 1001, "Alpha Diamonds Ltd")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if d2.ID != d.ID {
		t.Fatalf("upsert created a new row: %s vs %s", d2.ID, d.ID)
	}
	if !d2.Active || d2.Name != "Alpha Diamonds Ltd" {
		t.Fatalf("dealer after upsert = %+v", d2)
	}

	var count int64
	db.Model(&domain.Dealer{}).Count(&count)
	if count != 1 {
		t.Fatalf("dealer rows = %d, want 1", count)
	}
}

func TestListActiveDealerIDs_DirectoryOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []int64{1001, 1002, 1003} {
		d := &domain.Dealer{
			ID:         uuid.NewString(),
			TelegramID: id,
			Name:       fmt.Sprintf("dealer-%d", id),
			Active:     true,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(d).Error; err != nil {
			t.Fatalf("seed %d: %v", id, err)
		}
	}
	if err := db.Model(&domain.Dealer{}).Where("telegram_id = ?", int64(1002)).
		Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	ids, err := ListActiveDealerIDs(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1001 || ids[1] != 1003 {
		t.Fatalf("ids = %v, want [1001 1003] in registration order", ids)
	}
}
