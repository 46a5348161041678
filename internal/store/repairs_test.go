package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/s2s-retail/s2s/internal/db"
	"github.com/s2s-retail/s2s/internal/model"
)

func TestRepairDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	repair, err := CreateRepair(ctx, database, model.RepairTicket{
		StoreID: "store-a", CustomerName: "김철수", RepairContent: "소매 수선",
	})
	if err != nil {
		t.Fatalf("CreateRepair: %v", err)
	}

	if repair.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("expected default payment status %s, got %s", model.PaymentUnpaid, repair.PaymentStatus)
	}
	if repair.RepairStatus != model.RepairPending {
		t.Errorf("expected default repair status %s, got %s", model.RepairPending, repair.RepairStatus)
	}
	if repair.EstimatedMinutes != 30 {
		t.Errorf("expected default estimate 30, got %d", repair.EstimatedMinutes)
	}
	if !repair.Cost.IsZero() {
		t.Errorf("expected zero cost, got %s", repair.Cost)
	}
}

func TestRepairCostRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	cost := decimal.RequireFromString("15000.50")
	repair, err := CreateRepair(ctx, database, model.RepairTicket{
		StoreID: "store-a", CustomerName: "김철수", Cost: cost,
	})
	if err != nil {
		t.Fatalf("CreateRepair: %v", err)
	}

	got, err := GetRepair(ctx, database, repair.ID)
	if err != nil {
		t.Fatalf("GetRepair: %v", err)
	}
	if !got.Cost.Equal(cost) {
		t.Errorf("expected cost %s, got %s", cost, got.Cost)
	}
}

func TestRepairNegativeCostRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	_, err := CreateRepair(ctx, database, model.RepairTicket{
		StoreID: "store-a", CustomerName: "김철수",
		Cost: decimal.RequireFromString("-1"),
	})
	if err == nil {
		t.Error("expected error for negative cost")
	}
}

func TestUpdateRepairPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	repair, _ := CreateRepair(ctx, database, model.RepairTicket{
		StoreID: "store-a", CustomerName: "김철수",
	})

	status := model.PaymentPaid
	updated, err := UpdateRepair(ctx, database, repair.ID, RepairUpdate{PaymentStatus: &status})
	if err != nil {
		t.Fatalf("UpdateRepair: %v", err)
	}

	if updated.PaymentStatus != model.PaymentPaid {
		t.Errorf("expected %s, got %s", model.PaymentPaid, updated.PaymentStatus)
	}
	if updated.RepairStatus != model.RepairPending || updated.CustomerName != "김철수" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("expected updatedAt to be set")
	}
}

func TestUpdateRepairNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	name := "x"
	_, err := UpdateRepair(context.Background(), database, "repair-missing", RepairUpdate{CustomerName: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRepairsByStore(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	CreateStore(ctx, database, "store-b", "B", "b@example.com")
	CreateRepair(ctx, database, model.RepairTicket{StoreID: "store-a", CustomerName: "김철수"})
	CreateRepair(ctx, database, model.RepairTicket{StoreID: "store-a", CustomerName: "이영희"})
	CreateRepair(ctx, database, model.RepairTicket{StoreID: "store-b", CustomerName: "박민수"})

	all, err := ListRepairs(ctx, database, "")
	if err != nil {
		t.Fatalf("ListRepairs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 repairs, got %d", len(all))
	}

	forA, err := ListRepairs(ctx, database, "store-a")
	if err != nil {
		t.Fatalf("ListRepairs(store-a): %v", err)
	}
	if len(forA) != 2 {
		t.Errorf("expected 2 repairs for store-a, got %d", len(forA))
	}
}

func TestDeleteRepair(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	repair, _ := CreateRepair(ctx, database, model.RepairTicket{StoreID: "store-a", CustomerName: "김철수"})

	if err := DeleteRepair(ctx, database, repair.ID); err != nil {
		t.Fatalf("DeleteRepair: %v", err)
	}

	got, _ := GetRepair(ctx, database, repair.ID)
	if got != nil {
		t.Error("expected repair gone after delete")
	}

	if err := DeleteRepair(ctx, database, repair.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
