package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(r repository.Repos) error {
		tbl := &model.Table{Name: "T1", Capacity: 4, Status: model.TableNotBooked}
		if err := r.Tables().Create(ctx, tbl); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}
	list, err := s.Tables().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("tables after rollback = %d, want 0", len(list))
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := New()
	func() {
		defer func() { _ = recover() }()
		_ = s.WithTx(ctx, func(r repository.Repos) error {
			_ = r.Tables().Create(ctx, &model.Table{Name: "T1", Capacity: 2, Status: model.TableNotBooked})
			panic("boom")
		})
	}()
	list, _ := s.Tables().List(ctx)
	if len(list) != 0 {
		t.Fatalf("tables after panic = %d, want 0", len(list))
	}
	// the lock must have been released
	if err := s.Tables().Create(ctx, &model.Table{Name: "T2", Capacity: 2, Status: model.TableNotBooked}); err != nil {
		t.Fatal(err)
	}
}

func TestTableNameUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Tables().Create(ctx, &model.Table{Name: "T1", Capacity: 2}); err != nil {
		t.Fatal(err)
	}
	err := s.Tables().Create(ctx, &model.Table{Name: "T1", Capacity: 6})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestDeleteTableKeepsOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	tbl := &model.Table{Name: "T1", Capacity: 2, Status: model.TableNotBooked}
	if err := s.Tables().Create(ctx, tbl); err != nil {
		t.Fatal(err)
	}
	o := &model.Order{UserID: 1, TableID: &tbl.ID, OrderTime: time.Now(), Status: model.OrderPending}
	if err := s.Orders().Create(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := s.Tables().Delete(ctx, tbl.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.Orders().GetByID(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TableID != nil {
		t.Fatalf("TableID = %v, want nil", *got.TableID)
	}
}

func TestDeleteOrderCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &model.Order{UserID: 1, OrderTime: time.Now(), Status: model.OrderPending}
	if err := s.Orders().Create(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := s.Orders().CreateItem(ctx, &model.OrderItem{OrderID: o.ID, ProductID: 9, Quantity: 1, Price: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}
	txn := model.PlaceholderTransactionID(o.ID)
	if err := s.Payments().Create(ctx, &model.Payment{OrderID: o.ID, Status: model.PaymentPending, TransactionID: &txn}); err != nil {
		t.Fatal(err)
	}
	if err := s.Orders().Delete(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	items, _ := s.Orders().ListItems(ctx, o.ID)
	pays, _ := s.Payments().ListByOrder(ctx, o.ID)
	if len(items) != 0 || len(pays) != 0 {
		t.Fatalf("items=%d payments=%d after delete, want 0 and 0", len(items), len(pays))
	}
}

func TestPaymentTransactionIDUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &model.Order{UserID: 1, OrderTime: time.Now(), Status: model.OrderPending}
	if err := s.Orders().Create(ctx, o); err != nil {
		t.Fatal(err)
	}
	txn := "PAY-1"
	if err := s.Payments().Create(ctx, &model.Payment{OrderID: o.ID, Status: model.PaymentCompleted, TransactionID: &txn}); err != nil {
		t.Fatal(err)
	}
	err := s.Payments().Create(ctx, &model.Payment{OrderID: o.ID, Status: model.PaymentCompleted, TransactionID: &txn})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestListByTableBetweenInclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	tbl := &model.Table{Name: "T1", Capacity: 4, Status: model.TableNotBooked}
	if err := s.Tables().Create(ctx, tbl); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, h := range []int{-3, -2, 0, 2, 3} {
		r := &model.Reservation{TableID: tbl.ID, UserID: 1, NumPeople: 2, ReservationTime: base.Add(time.Duration(h) * time.Hour), Status: model.ReservationBooked}
		if err := s.Reservations().Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Reservations().ListByTableBetween(ctx, tbl.ID, base.Add(-2*time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d reservations, want 3", len(got))
	}
	if !got[0].ReservationTime.Equal(base.Add(-2 * time.Hour)) {
		t.Fatalf("first = %v, want ascending order", got[0].ReservationTime)
	}
}

func TestOrderTableIDDetached(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := s.AddUser(model.User{Email: "a@example.com", Role: model.RoleCustomer})
	tbl := &model.Table{Name: "T1", Capacity: 4, Status: model.TableNotBooked}
	if err := s.Tables().Create(ctx, tbl); err != nil {
		t.Fatal(err)
	}

	tid := tbl.ID
	o := &model.Order{UserID: u.ID, TableID: &tid, OrderTime: time.Now(), Status: model.OrderCancelled}
	if err := s.Orders().Create(ctx, o); err != nil {
		t.Fatal(err)
	}
	tid = 424242

	got, err := s.Orders().GetByID(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TableID == nil || *got.TableID != tbl.ID {
		t.Fatalf("table_id after caller change = %v, want %d", got.TableID, tbl.ID)
	}

	// Writing through a read copy must not reach the store either.
	*got.TableID = 99
	list, err := s.Orders().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || *list[0].TableID != tbl.ID {
		t.Fatalf("listed table_id = %d, want %d", *list[0].TableID, tbl.ID)
	}

	// Rollback restores the value even when the tx changed it in place.
	boom := errors.New("boom")
	_ = s.WithTx(ctx, func(r repository.Repos) error {
		cur, err := r.Orders().GetByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		*cur.TableID = 7
		if err := r.Orders().Update(ctx, cur); err != nil {
			return err
		}
		return boom
	})
	got, err = s.Orders().GetByID(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *got.TableID != tbl.ID {
		t.Fatalf("table_id after rollback = %d, want %d", *got.TableID, tbl.ID)
	}
}
