package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository/memory"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordingSender) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSender) queues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.QueueName())
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	events   *recordingSender
	now      time.Time
	customer Principal
	other    Principal
	admin    Principal
	table    model.Table
	coffee   model.Product

	reservations *ReservationManager
	orders       *OrderWorkflow
	payments     *PaymentLedger
	tables       *TableAdmin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureStrict(t, false)
}

func newFixtureStrict(t *testing.T, strict bool) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  memory.New(),
		events: &recordingSender{},
		now:    t0,
	}
	cu := f.store.AddUser(model.User{Email: "ana@example.com", Role: model.RoleCustomer, IsActive: true})
	ou := f.store.AddUser(model.User{Email: "ben@example.com", Role: model.RoleCustomer, IsActive: true})
	au := f.store.AddUser(model.User{Email: "staff@example.com", Role: model.RoleAdmin, IsActive: true})
	f.customer = Principal{UserID: cu.ID, Role: cu.Role}
	f.other = Principal{UserID: ou.ID, Role: ou.Role}
	f.admin = Principal{UserID: au.ID, Role: au.Role}

	cat := f.store.AddCategory(model.Category{Name: "Drinks"})
	f.coffee = f.store.AddProduct(model.Product{CategoryID: &cat.ID, Name: "Latte", Price: decimal.RequireFromString("3.50")})

	opts := []Option{
		WithClock(func() time.Time { return f.now }),
		WithEvents(f.events),
	}
	f.reservations = NewReservationManager(f.store, strict, opts...)
	f.orders = NewOrderWorkflow(f.store, f.reservations, opts...)
	f.payments = NewPaymentLedger(f.store, opts...)
	f.tables = NewTableAdmin(f.store, opts...)

	name, capacity := "T1", 4
	tbl, err := f.tables.Create(f.ctx, f.admin, TableInput{Name: &name, Capacity: &capacity})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	f.table = *tbl
	return f
}

func (f *fixture) book(t *testing.T, p Principal, start time.Time, people int) *model.Reservation {
	t.Helper()
	res, err := f.reservations.Create(f.ctx, p, CreateReservationInput{TableID: f.table.ID, NumPeople: people, StartTime: start})
	if err != nil {
		t.Fatalf("book %s: %v", start.Format(time.RFC3339), err)
	}
	return res
}

func intPtr(n int) *int { return &n }
func u64Ptr(n uint64) *uint64 { return &n }
func strPtr(s string) *string { return &s }
func statusPtr(s model.TableStatus) *model.TableStatus { return &s }
