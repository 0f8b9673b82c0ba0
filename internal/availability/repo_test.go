package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:availability_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.AvailabilitySlot{}); err != nil {
		t.Fatalf("migrate slots: %v", err)
	}
	return db
}

func seedSlot(t *testing.T, db *gorm.DB, counsellorID uuid.UUID, date time.Time, start string) models.AvailabilitySlot {
	t.Helper()
	slot := models.AvailabilitySlot{
		ID:              uuid.New(),
		CounsellorID:    counsellorID,
		Date:            date,
		StartTime:       start,
		EndTime:         "11:00",
		DurationMinutes: 60,
	}
	if err := db.Create(&slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

func TestReserveWinsOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, uuid.New(), date, "10:00")

	if err := repo.Reserve(ctx, slot.ID); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	err := repo.Reserve(ctx, slot.ID)
	if err == nil {
		t.Fatal("expected second reserve to lose")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSlotReserved {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeSlotReserved, err)
	}

	var stored models.AvailabilitySlot
	if err := db.First(&stored, "id = ?", slot.ID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if !stored.IsBooked {
		t.Fatal("expected slot to stay booked")
	}
}

func TestReserveUnknownSlot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	err := repo.Reserve(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeNotFound, err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, uuid.New(), date, "10:00")

	if err := repo.Reserve(ctx, slot.ID); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := repo.Release(ctx, slot.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := repo.Release(ctx, slot.ID); err != nil {
		t.Fatalf("second release failed: %v", err)
	}

	var stored models.AvailabilitySlot
	if err := db.First(&stored, "id = ?", slot.ID).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if stored.IsBooked {
		t.Fatal("expected slot to be free after release")
	}
}

func TestFindFreeSkipsBookedSlots(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	counsellorID := uuid.New()
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, counsellorID, date, "10:00")

	found, err := repo.FindFree(ctx, counsellorID, date, "10:00")
	if err != nil {
		t.Fatalf("find free: %v", err)
	}
	if found == nil || found.ID != slot.ID {
		t.Fatalf("expected to find slot %s, got %+v", slot.ID, found)
	}

	if err := repo.Reserve(ctx, slot.ID); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	found, err = repo.FindFree(ctx, counsellorID, date, "10:00")
	if err != nil {
		t.Fatalf("find free after reserve: %v", err)
	}
	if found != nil {
		t.Fatalf("expected no free slot, got %+v", found)
	}
}

func TestListFreeForDateOrdersByStart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	counsellorID := uuid.New()
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	seedSlot(t, db, counsellorID, date, "14:00")
	seedSlot(t, db, counsellorID, date, "09:00")
	booked := seedSlot(t, db, counsellorID, date, "11:00")
	if err := repo.Reserve(ctx, booked.ID); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	slots, err := repo.ListFreeForDate(ctx, counsellorID, date)
	if err != nil {
		t.Fatalf("list free: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 free slots, got %d", len(slots))
	}
	if slots[0].StartTime != "09:00" || slots[1].StartTime != "14:00" {
		t.Fatalf("unexpected ordering: %s, %s", slots[0].StartTime, slots[1].StartTime)
	}
}
