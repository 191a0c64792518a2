package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/venue-booking/internal/model"
)

// TableStore persists venue tables.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	// GetByIDForUpdate loads the table and holds a write lock on its row
	// until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	Update(ctx context.Context, t *model.Table) error
	UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error
	Delete(ctx context.Context, id uint64) error
}

// ReservationStore persists reservations.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// ListByTableBetween returns the table's reservations whose start time
	// lies in [from, to], both ends inclusive.
	ListByTableBetween(ctx context.Context, tableID uint64, from, to time.Time) ([]model.Reservation, error)
	ListByTable(ctx context.Context, tableID uint64) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	List(ctx context.Context) ([]model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
}

// OrderStore persists orders and their items.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	Update(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	// Delete removes the order together with its items and payments.
	Delete(ctx context.Context, id uint64) error
	CreateItem(ctx context.Context, it *model.OrderItem) error
	ListItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error)
}

// PaymentStore persists payment attempts.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p *model.Payment) error
	// ListByOrder returns the order's payments in insertion order.
	ListByOrder(ctx context.Context, orderID uint64) ([]model.Payment, error)
}

// UserStore resolves users owned by the identity service.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// ProductStore is the read-only view of the menu.
type ProductStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	GetCategory(ctx context.Context, id uint64) (*model.Category, error)
}

// Repos gives access to every entity store bound to the same connection
// or transaction.
type Repos interface {
	Tables() TableStore
	Reservations() ReservationStore
	Orders() OrderStore
	Payments() PaymentStore
	Users() UserStore
	Products() ProductStore
}

// Store is a Repos that can also open a transaction.  Every write made
// through the Repos passed to fn commits together, or none of them does
// when fn returns an error.
type Store interface {
	Repos
	WithTx(ctx context.Context, fn func(Repos) error) error
}

// DBTX is the subset of *sql.DB and *sql.Tx used by the MySQL repos, so
// the same repo code runs inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is the MySQL backed Store.
type SQLStore struct {
	db *sql.DB
	sqlRepos
}

// NewSQLStore returns a Store bound to the given database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, sqlRepos: sqlRepos{q: db}}
}

// DB exposes the underlying handle for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// WithTx runs fn inside a READ COMMITTED transaction.  Row locks taken
// through the *ForUpdate lookups are held until commit or rollback.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(sqlRepos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type sqlRepos struct{ q DBTX }

func (r sqlRepos) Tables() TableStore             { return NewTableRepo(r.q) }
func (r sqlRepos) Reservations() ReservationStore { return NewReservationRepo(r.q) }
func (r sqlRepos) Orders() OrderStore             { return NewOrderRepo(r.q) }
func (r sqlRepos) Payments() PaymentStore         { return NewPaymentRepo(r.q) }
func (r sqlRepos) Users() UserStore               { return NewUserRepo(r.q) }
func (r sqlRepos) Products() ProductStore         { return NewProductRepo(r.q) }
