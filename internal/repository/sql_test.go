package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-booking/internal/model"
)

var ts = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// at matches a bound time by instant rather than by representation.
type at time.Time

func (a at) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Equal(time.Time(a))
}

func newMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
		_ = db.Close()
	})
	return NewSQLStore(db), mock
}

func tableRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "capacity", "status", "created_at", "updated_at"})
}

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "table_id", "user_id", "num_people", "reservation_time", "status", "content", "created_at"})
}

func TestTableGetByIDForUpdateLocksRow(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM venue_tables WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(tableRows().AddRow(int64(7), "T1", 4, "BOOKED", ts, ts))

	tbl, err := s.Tables().GetByIDForUpdate(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.ID != 7 || tbl.Capacity != 4 || tbl.Status != model.TableBooked {
		t.Fatalf("table = %+v", tbl)
	}
}

func TestTableGetByIDMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`FROM venue_tables WHERE id = \?`).WithArgs(9).WillReturnRows(tableRows())

	if _, err := s.Tables().GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByTableBetweenBindsWindow(t *testing.T) {
	s, mock := newMock(t)
	from, to := ts.Add(-2*time.Hour), ts.Add(2*time.Hour)
	mock.ExpectQuery(`WHERE table_id = \? AND reservation_time BETWEEN \? AND \?\s+ORDER BY reservation_time`).
		WithArgs(3, at(from), at(to)).
		WillReturnRows(reservationRows().
			AddRow(int64(1), int64(3), int64(5), 2, from, "BOOKED", nil, ts).
			AddRow(int64(2), int64(3), int64(6), 4, to, "BOOKED", "window seat", ts))

	list, err := s.Reservations().ListByTableBetween(context.Background(), 3, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d reservations, want 2", len(list))
	}
	if !list[0].ReservationTime.Equal(from) || list[0].Content != "" || list[1].Content != "window seat" {
		t.Fatalf("list = %+v", list)
	}
}

func TestWithTxRollsBackOnCallbackError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE venue_tables SET status = \? WHERE id = \?`).
		WithArgs("BOOKED", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(r Repos) error {
		if err := r.Tables().UpdateStatus(context.Background(), 7, model.TableBooked); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestWithTxCommits(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(r Repos) error {
		return r.Reservations().Delete(context.Background(), 4)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWithTxCommitFailure(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := s.WithTx(context.Background(), func(Repos) error { return nil })
	if err == nil {
		t.Fatal("commit failure swallowed")
	}
}

func TestZeroRowsAffectedIsNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`UPDATE venue_tables SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM orders WHERE id = \?`).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := s.Tables().UpdateStatus(ctx, 1, model.TableNotBooked); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateStatus err = %v, want ErrNotFound", err)
	}
	if err := s.Orders().Delete(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestDuplicateKeyTranslated(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'PAY-1' for key 'transaction_id'"}
	ctx := context.Background()

	t.Run("payment", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO payments`).WillReturnError(dup)
		txn := "PAY-1"
		p := &model.Payment{OrderID: 1, Amount: decimal.NewFromInt(5), Status: model.PaymentCompleted, PaymentTime: ts, TransactionID: &txn}
		if err := s.Payments().Create(ctx, p); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("err = %v, want ErrDuplicate", err)
		}
	})
	t.Run("table name", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO venue_tables`).WillReturnError(dup)
		if err := s.Tables().Create(ctx, &model.Table{Name: "T1", Capacity: 2, Status: model.TableNotBooked}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("err = %v, want ErrDuplicate", err)
		}
	})
	t.Run("other errors pass through", func(t *testing.T) {
		s, mock := newMock(t)
		fk := &mysql.MySQLError{Number: 1452, Message: "foreign key"}
		mock.ExpectExec(`INSERT INTO order_items`).WillReturnError(fk)
		err := s.Orders().CreateItem(ctx, &model.OrderItem{OrderID: 1, ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(3)})
		var me *mysql.MySQLError
		if errors.Is(err, ErrDuplicate) || !errors.As(err, &me) || me.Number != 1452 {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestOrderNullTable(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"id", "user_id", "table_id", "order_time", "total_amount", "status", "created_at", "updated_at"}
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(2, nil, at(ts), "7", "PENDING").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`FROM orders WHERE id = \?`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(11), int64(2), nil, ts, "7.00", "PENDING", ts, ts))

	o := &model.Order{UserID: 2, OrderTime: ts, TotalAmount: decimal.NewFromInt(7), Status: model.OrderPending}
	if err := s.Orders().Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if o.ID != 11 || o.TableID != nil || !o.TotalAmount.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("order = %+v", o)
	}
}
