package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/s2s-retail/s2s/internal/db"
	"github.com/s2s-retail/s2s/internal/metrics"
	"github.com/s2s-retail/s2s/internal/model"
)

// setupTransfer creates a shipper (gangnam) holding the coat and a
// receiver (hongdae) without it, plus a request for qty units.
func setupTransfer(t *testing.T, database *sql.DB, qty int) *model.TransferRequest {
	t.Helper()
	ctx := context.Background()

	CreateStore(ctx, database, "store-gangnam", "강남점", "gangnam@example.com")
	CreateStore(ctx, database, "store-hongdae", "홍대점", "hongdae@example.com")

	AddInventoryItem(ctx, database, "store-gangnam", model.InventoryItem{
		ID: "OUTERWEAR_BROWN", Category: "OUTERWEAR", Name: "울 코트", Color: "BROWN",
		Size: "M", StockQuantity: 5, DisplayQuantity: 3,
	})

	req, err := CreateRequest(ctx, database, CreateRequestInput{
		FromStoreID: "store-hongdae",
		ToStoreID:   "store-gangnam",
		Item:        "OUTERWEAR_BROWN",
		Quantity:    qty,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return req
}

func advance(t *testing.T, database *sql.DB, id string, statuses ...string) {
	t.Helper()
	for _, s := range statuses {
		if _, _, err := UpdateRequestStatus(context.Background(), database, id, s, TransitionOptions{}); err != nil {
			t.Fatalf("UpdateRequestStatus(%s): %v", s, err)
		}
	}
}

func getItem(t *testing.T, database *sql.DB, storeID, key string) *model.InventoryItem {
	t.Helper()
	item, err := FindMatchingItem(context.Background(), database, storeID, key)
	if err != nil {
		t.Fatalf("FindMatchingItem: %v", err)
	}
	return item
}

func TestInTransitDeductsFromShipper(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 6)

	advance(t, database, req.ID, model.StatusApproved)

	// With display=3 and stock=5, shipping 6 draws fromDisplay from
	// [1, 3]. Pin the draw so the split is 2 off the floor, 4 from the
	// warehouse.
	_, warnings, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusInTransit,
		TransitionOptions{RandInt: func(n int) int { return 1 }})
	if err != nil {
		t.Fatalf("UpdateRequestStatus: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	item := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
	if item.DisplayQuantity != 1 || item.StockQuantity != 1 {
		t.Errorf("expected display=1 stock=1, got display=%d stock=%d",
			item.DisplayQuantity, item.StockQuantity)
	}
	if item.TotalOnHand() != 2 {
		t.Errorf("expected total 2 after shipping 6 of 8, got %d", item.TotalOnHand())
	}

	gauge := metrics.StockLevel.WithLabelValues("store-gangnam", "OUTERWEAR_BROWN")
	if got := testutil.ToFloat64(gauge); got != 2 {
		t.Errorf("expected stock gauge 2 after deduction, got %v", got)
	}
}

func TestInTransitSplitBounds(t *testing.T) {
	// Shipper holds display=3, stock=5. For a given quantity the draw
	// ranges over [max(0, q-stock), min(display, q)]; every legal draw
	// must leave both quantities non-negative and remove exactly q
	// units. The lower bound matters when the warehouse alone cannot
	// cover the quantity: with q=6 a draw of 0 off the floor would need
	// 6 from a warehouse of 5.
	cases := []struct {
		quantity  int
		wantRange int // number of legal draws passed to RandInt
	}{
		{quantity: 2, wantRange: 3}, // fromDisplay in [0, 2]
		{quantity: 6, wantRange: 3}, // fromDisplay in [1, 3]
		{quantity: 8, wantRange: 1}, // exact drain, fromDisplay = 3
	}

	for _, tc := range cases {
		for draw := 0; draw < tc.wantRange; draw++ {
			database := db.NewTestDB(t)
			req := setupTransfer(t, database, tc.quantity)
			advance(t, database, req.ID, model.StatusApproved)

			_, _, err := UpdateRequestStatus(context.Background(), database, req.ID, model.StatusInTransit,
				TransitionOptions{RandInt: func(n int) int {
					if n != tc.wantRange {
						t.Errorf("q=%d: expected RandInt(%d), got RandInt(%d)", tc.quantity, tc.wantRange, n)
					}
					return draw
				}})
			if err != nil {
				t.Fatalf("q=%d draw %d: %v", tc.quantity, draw, err)
			}

			item := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
			if item.DisplayQuantity < 0 || item.StockQuantity < 0 {
				t.Errorf("q=%d draw %d: negative quantity: %+v", tc.quantity, draw, item)
			}
			if want := 8 - tc.quantity; item.TotalOnHand() != want {
				t.Errorf("q=%d draw %d: expected total %d, got %d",
					tc.quantity, draw, want, item.TotalOnHand())
			}
		}
	}
}

func TestInTransitProcessRNGConserves(t *testing.T) {
	// No pinned RNG: whatever the process RNG draws, shipping 6 of 8
	// must leave exactly 2 on hand.
	for i := 0; i < 20; i++ {
		database := db.NewTestDB(t)
		req := setupTransfer(t, database, 6)
		advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit)

		item := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
		if item.DisplayQuantity < 0 || item.StockQuantity < 0 {
			t.Fatalf("negative quantity: %+v", item)
		}
		if item.TotalOnHand() != 2 {
			t.Fatalf("expected total 2, got %d (display=%d stock=%d)",
				item.TotalOnHand(), item.DisplayQuantity, item.StockQuantity)
		}
	}
}

func TestInTransitInsufficientStockWarns(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 10) // only 8 on hand

	advance(t, database, req.ID, model.StatusApproved)

	updated, warnings, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusInTransit, TransitionOptions{})
	if err != nil {
		t.Fatalf("UpdateRequestStatus: %v", err)
	}
	if updated.Status != model.StatusInTransit {
		t.Errorf("expected status in_transit, got %s", updated.Status)
	}
	if len(warnings) != 1 || warnings[0].Reason != SkipInsufficientStock {
		t.Fatalf("expected insufficient_stock warning, got %v", warnings)
	}

	// Inventory untouched.
	item := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
	if item.StockQuantity != 5 || item.DisplayQuantity != 3 {
		t.Errorf("inventory changed despite skip: %+v", item)
	}
}

func TestInTransitInsufficientStockStrict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 10)

	advance(t, database, req.ID, model.StatusApproved)

	_, warnings, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusInTransit,
		TransitionOptions{Strict: true})
	if !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected ErrStockConflict, got %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	// Strict mode rolls the status write back too.
	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.StatusApproved {
		t.Errorf("expected status still approved after rollback, got %s", got.Status)
	}
	item := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
	if item.StockQuantity != 5 || item.DisplayQuantity != 3 {
		t.Errorf("inventory changed despite rollback: %+v", item)
	}
}

func TestInTransitIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 6)

	advance(t, database, req.ID, model.StatusApproved)
	advance(t, database, req.ID, model.StatusInTransit)

	before := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")

	// Retrying the same status must not deduct again.
	updated, warnings, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusInTransit, TransitionOptions{})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if updated.Status != model.StatusInTransit {
		t.Errorf("expected status in_transit, got %s", updated.Status)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings on retry: %v", warnings)
	}

	after := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
	if after.StockQuantity != before.StockQuantity || after.DisplayQuantity != before.DisplayQuantity {
		t.Errorf("retry deducted again: before %+v, after %+v", before, after)
	}
}

func TestCompletedAddsToReceiverStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 6)

	// Receiver already carries the item.
	AddInventoryItem(ctx, database, "store-hongdae", model.InventoryItem{
		ID: "OUTERWEAR_BROWN", Category: "OUTERWEAR", Name: "울 코트", Color: "BROWN",
		Size: "M", StockQuantity: 2, DisplayQuantity: 1,
	})

	advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit, model.StatusCompleted)

	item := getItem(t, database, "store-hongdae", "OUTERWEAR_BROWN")
	if item.StockQuantity != 8 {
		t.Errorf("expected receiver stock 2+6=8, got %d", item.StockQuantity)
	}
	if item.DisplayQuantity != 1 {
		t.Errorf("expected receiver display unchanged at 1, got %d", item.DisplayQuantity)
	}
}

func TestCompletedCreatesMissingReceiverItem(t *testing.T) {
	database := db.NewTestDB(t)
	req := setupTransfer(t, database, 6)

	advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit, model.StatusCompleted)

	item := getItem(t, database, "store-hongdae", "OUTERWEAR_BROWN")
	if item == nil {
		t.Fatal("expected receiver item to be created")
	}
	if item.StockQuantity != 6 || item.DisplayQuantity != 0 {
		t.Errorf("expected stock=6 display=0, got stock=%d display=%d",
			item.StockQuantity, item.DisplayQuantity)
	}
	if item.Name != "울 코트" || item.Category != "OUTERWEAR" || item.Color != "BROWN" || item.Size != "M" {
		t.Errorf("metadata not cloned from shipper: %+v", item)
	}
}

func TestCompletedMissingEverywhereWarns(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	CreateStore(ctx, database, "store-b", "B", "b@example.com")
	req, err := CreateRequest(ctx, database, CreateRequestInput{
		FromStoreID: "store-a", ToStoreID: "store-b", Item: "GHOST_ITEM", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit)

	updated, warnings, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusCompleted, TransitionOptions{})
	if err != nil {
		t.Fatalf("UpdateRequestStatus: %v", err)
	}
	if updated.Status != model.StatusCompleted {
		t.Errorf("expected status completed, got %s", updated.Status)
	}
	// in_transit warned about the missing item, completed warns again.
	if len(warnings) != 1 || warnings[0].Reason != SkipMissingItem {
		t.Errorf("expected missing_item warning, got %v", warnings)
	}
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		from, to string
	}{
		{model.StatusRequested, model.StatusInTransit},
		{model.StatusRequested, model.StatusCompleted},
		{model.StatusApproved, model.StatusCompleted},
		{model.StatusInTransit, model.StatusRejected},
		{model.StatusCompleted, model.StatusRequested},
		{model.StatusRejected, model.StatusApproved},
	}

	for _, tc := range cases {
		database := db.NewTestDB(t)
		ctx := context.Background()
		req := setupTransfer(t, database, 1)

		// Walk to the starting status.
		switch tc.from {
		case model.StatusApproved:
			advance(t, database, req.ID, model.StatusApproved)
		case model.StatusInTransit:
			advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit)
		case model.StatusCompleted:
			advance(t, database, req.ID, model.StatusApproved, model.StatusInTransit, model.StatusCompleted)
		case model.StatusRejected:
			advance(t, database, req.ID, model.StatusRejected)
		}

		_, _, err := UpdateRequestStatus(ctx, database, req.ID, tc.to, TransitionOptions{})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestUpdateStatusUnknownRequest(t *testing.T) {
	database := db.NewTestDB(t)

	_, _, err := UpdateRequestStatus(context.Background(), database, "req-missing", model.StatusApproved, TransitionOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFullTransferFlow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	req := setupTransfer(t, database, 6)

	advance(t, database, req.ID, model.StatusApproved)

	_, _, err := UpdateRequestStatus(ctx, database, req.ID, model.StatusInTransit,
		TransitionOptions{RandInt: func(n int) int {
			return n - 1 // max legal draw: all 3 display units
		}})
	if err != nil {
		t.Fatalf("in_transit: %v", err)
	}

	shipped := getItem(t, database, "store-gangnam", "OUTERWEAR_BROWN")
	if shipped.TotalOnHand() != 2 {
		t.Errorf("expected shipper total 2, got %d", shipped.TotalOnHand())
	}

	advance(t, database, req.ID, model.StatusCompleted)

	received := getItem(t, database, "store-hongdae", "OUTERWEAR_BROWN")
	if received == nil || received.StockQuantity != 6 || received.DisplayQuantity != 0 {
		t.Errorf("expected receiver stock=6 display=0, got %+v", received)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	if _, err := CreateRequest(ctx, database, CreateRequestInput{
		FromStoreID: "store-a", ToStoreID: "store-missing", Item: "X", Quantity: 1,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown store, got %v", err)
	}

	if _, err := CreateRequest(ctx, database, CreateRequestInput{
		FromStoreID: "store-a", ToStoreID: "store-a", Item: "X", Quantity: 0,
	}); err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestListIncomingOutgoing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	CreateStore(ctx, database, "store-b", "B", "b@example.com")

	req, err := CreateRequest(ctx, database, CreateRequestInput{
		FromStoreID: "store-a", ToStoreID: "store-b", Item: "X", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	incoming, _ := ListIncoming(ctx, database, "store-a")
	if len(incoming) != 1 || incoming[0].ID != req.ID {
		t.Errorf("expected request in store-a incoming, got %v", incoming)
	}
	outgoing, _ := ListOutgoing(ctx, database, "store-b")
	if len(outgoing) != 1 || outgoing[0].ID != req.ID {
		t.Errorf("expected request in store-b outgoing, got %v", outgoing)
	}
	if got, _ := ListIncoming(ctx, database, "store-b"); len(got) != 0 {
		t.Errorf("expected no incoming for store-b, got %v", got)
	}
}
