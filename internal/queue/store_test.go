package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"print-bridge/internal/models"
)

var baseTime = time.Date(2025, time.March, 7, 18, 0, 0, 0, time.UTC)

func storeJob(id, restaurantID string, offset time.Duration) models.PrintJob {
	return models.PrintJob{
		ID:           id,
		RestaurantID: restaurantID,
		OrderData: models.OrderData{
			OrderNumber: "N-" + id,
			Items: []models.OrderItem{
				{Name: "Garlic Bread", Quantity: 1, UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5)},
			},
			Subtotal:      decimal.NewFromInt(5),
			Total:         decimal.NewFromInt(5),
			PaymentMethod: models.PaymentCard,
		},
		ReceiptData:     "G0A=",
		ReceiptEncoding: models.ReceiptBase64,
		Status:          models.JobPending,
		Timestamp:       baseTime.Add(offset),
	}
}

func newRedisTestStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "test")
}

func TestStores(t *testing.T) {
	factories := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"redis":  newRedisTestStore,
	}
	for name, newStore := range factories {
		t.Run(name, func(t *testing.T) {
			t.Run("partitioned fifo", func(t *testing.T) { testPartitionedFIFO(t, newStore(t)) })
			t.Run("duplicate id", func(t *testing.T) { testDuplicateID(t, newStore(t)) })
			t.Run("mark completed", func(t *testing.T) { testMarkCompleted(t, newStore(t)) })
			t.Run("stats", func(t *testing.T) { testStats(t, newStore(t)) })
			t.Run("prune", func(t *testing.T) { testPrune(t, newStore(t)) })
			t.Run("foreign restaurant", func(t *testing.T) { testForeignCompletion(t, newStore(t)) })
			t.Run("detached copies", func(t *testing.T) { testDetachedCopies(t, newStore(t)) })
			t.Run("id retention", func(t *testing.T) { testIDRetention(t, newStore(t)) })
		})
	}
}

func mustInsert(t *testing.T, s Store, jobs ...models.PrintJob) {
	t.Helper()
	for _, job := range jobs {
		if err := s.Insert(context.Background(), job); err != nil {
			t.Fatalf("Insert(%s): %v", job.ID, err)
		}
	}
}

func pendingIDs(t *testing.T, s Store, restaurantID string) []string {
	t.Helper()
	jobs, err := s.Pending(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("Pending(%s): %v", restaurantID, err)
	}
	if jobs == nil {
		t.Fatalf("Pending(%s) returned nil slice", restaurantID)
	}
	ids := make([]string, len(jobs))
	for i, job := range jobs {
		if job.RestaurantID != restaurantID {
			t.Errorf("job %s belongs to %s, listed for %s", job.ID, job.RestaurantID, restaurantID)
		}
		if job.Status != models.JobPending {
			t.Errorf("job %s listed with status %s", job.ID, job.Status)
		}
		ids[i] = job.ID
	}
	return ids
}

func assertIDs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func testPartitionedFIFO(t *testing.T, s Store) {
	mustInsert(t, s,
		storeJob("a1", "xtreme-pizza", 0),
		storeJob("b1", "burger-barn", time.Second),
		storeJob("a2", "xtreme-pizza", 2*time.Second),
		storeJob("a3", "xtreme-pizza", 3*time.Second),
	)

	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"), "a1", "a2", "a3")
	assertIDs(t, pendingIDs(t, s, "burger-barn"), "b1")
	assertIDs(t, pendingIDs(t, s, "nobody"))

	jobs, err := s.Pending(context.Background(), "xtreme-pizza")
	if err != nil {
		t.Fatal(err)
	}
	if jobs[0].OrderData.OrderNumber != "N-a1" || !jobs[0].Timestamp.Equal(baseTime) {
		t.Errorf("round trip lost data: %+v", jobs[0])
	}
	if !jobs[0].OrderData.Total.Equal(decimal.NewFromInt(5)) {
		t.Errorf("total = %s", jobs[0].OrderData.Total)
	}
}

func testDuplicateID(t *testing.T, s Store) {
	mustInsert(t, s, storeJob("dup", "xtreme-pizza", 0))

	err := s.Insert(context.Background(), storeJob("dup", "burger-barn", time.Second))
	if !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("second Insert = %v, want ErrDuplicateJob", err)
	}
	assertIDs(t, pendingIDs(t, s, "burger-barn"))
}

func testMarkCompleted(t *testing.T, s Store) {
	ctx := context.Background()
	mustInsert(t, s, storeJob("a1", "xtreme-pizza", 0), storeJob("a2", "xtreme-pizza", time.Second))

	done := baseTime.Add(time.Minute)
	ok, err := s.MarkCompleted(ctx, "xtreme-pizza", "a1", done)
	if err != nil || !ok {
		t.Fatalf("MarkCompleted = %v, %v; want true", ok, err)
	}
	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"), "a2")

	ok, err = s.MarkCompleted(ctx, "xtreme-pizza", "a1", done.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("repeat MarkCompleted = %v, %v; want false", ok, err)
	}
	ok, err = s.MarkCompleted(ctx, "xtreme-pizza", "missing", done)
	if err != nil || ok {
		t.Fatalf("MarkCompleted(missing) = %v, %v; want false", ok, err)
	}

	// The repeat must not have moved completedAt: pruning just after the
	// first completion still removes it.
	n, err := s.PruneCompleted(ctx, done.Add(time.Millisecond))
	if err != nil || n != 1 {
		t.Fatalf("PruneCompleted = %d, %v; want 1", n, err)
	}
}

func testStats(t *testing.T, s Store) {
	ctx := context.Background()
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (models.QueueStats{}) {
		t.Fatalf("empty store stats = %+v", stats)
	}

	mustInsert(t, s,
		storeJob("a1", "xtreme-pizza", 0),
		storeJob("a2", "xtreme-pizza", time.Second),
		storeJob("b1", "burger-barn", 2*time.Second),
	)
	if _, err := s.MarkCompleted(ctx, "burger-barn", "b1", baseTime.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := models.QueueStats{Total: 3, Pending: 2, Completed: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func testPrune(t *testing.T, s Store) {
	ctx := context.Background()
	mustInsert(t, s,
		storeJob("old", "xtreme-pizza", 0),
		storeJob("recent", "xtreme-pizza", time.Second),
		storeJob("waiting", "xtreme-pizza", 2*time.Second),
	)
	if _, err := s.MarkCompleted(ctx, "xtreme-pizza", "old", baseTime.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkCompleted(ctx, "xtreme-pizza", "recent", baseTime.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	n, err := s.PruneCompleted(ctx, baseTime.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := models.QueueStats{Total: 2, Pending: 1, Completed: 1}
	if stats != want {
		t.Fatalf("stats after prune = %+v, want %+v", stats, want)
	}
	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"), "waiting")

	// Pruned ids are gone for good; completing them again is a no-op.
	ok, err := s.MarkCompleted(ctx, "xtreme-pizza", "old", baseTime.Add(3*time.Hour))
	if err != nil || ok {
		t.Fatalf("MarkCompleted(pruned) = %v, %v", ok, err)
	}
}

func testForeignCompletion(t *testing.T, s Store) {
	ctx := context.Background()
	mustInsert(t, s, storeJob("a1", "xtreme-pizza", 0))

	ok, err := s.MarkCompleted(ctx, "burger-barn", "a1", baseTime.Add(time.Minute))
	if err != nil || ok {
		t.Fatalf("MarkCompleted(other restaurant) = %v, %v; want false", ok, err)
	}
	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"), "a1")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Completed != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	ok, err = s.MarkCompleted(ctx, "xtreme-pizza", "a1", baseTime.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("MarkCompleted(owner) = %v, %v; want true", ok, err)
	}
}

func testDetachedCopies(t *testing.T, s Store) {
	ctx := context.Background()
	job := storeJob("a1", "xtreme-pizza", 0)
	mustInsert(t, s, job)
	job.OrderData.Items[0].Name = "changed after insert"

	got, err := s.Pending(ctx, "xtreme-pizza")
	if err != nil {
		t.Fatal(err)
	}
	got[0].OrderData.Items[0].Name = "changed after read"

	again, err := s.Pending(ctx, "xtreme-pizza")
	if err != nil {
		t.Fatal(err)
	}
	if name := again[0].OrderData.Items[0].Name; name != "Garlic Bread" {
		t.Fatalf("stored item name = %q, want Garlic Bread", name)
	}
}

// Ids are rejected while their record is kept, completed or not. Pruning
// ends the retention window and with it the duplicate check.
func testIDRetention(t *testing.T, s Store) {
	ctx := context.Background()
	mustInsert(t, s, storeJob("fixed", "xtreme-pizza", 0))
	if _, err := s.MarkCompleted(ctx, "xtreme-pizza", "fixed", baseTime.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	if err := s.Insert(ctx, storeJob("fixed", "xtreme-pizza", time.Hour)); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("Insert(completed id) = %v, want ErrDuplicateJob", err)
	}
	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"))

	if n, err := s.PruneCompleted(ctx, baseTime.Add(time.Hour)); err != nil || n != 1 {
		t.Fatalf("PruneCompleted = %d, %v", n, err)
	}
	mustInsert(t, s, storeJob("fixed", "xtreme-pizza", 2*time.Hour))
	assertIDs(t, pendingIDs(t, s, "xtreme-pizza"), "fixed")
}
