// Package memory is an in-process repository.Store.  It backs local runs
// without MySQL and the service tests.  One mutex guards all state; a
// transaction holds it for its whole duration and restores a snapshot
// when the callback fails, so the observable semantics match the MySQL
// store run at READ COMMITTED with row locks.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

type data struct {
	tables       map[uint64]model.Table
	reservations map[uint64]model.Reservation
	orders       map[uint64]model.Order
	items        map[uint64]model.OrderItem
	payments     map[uint64]model.Payment
	users        map[uint64]model.User
	products     map[uint64]model.Product
	categories   map[uint64]model.Category
	seq          uint64
}

func newData() *data {
	return &data{
		tables:       map[uint64]model.Table{},
		reservations: map[uint64]model.Reservation{},
		orders:       map[uint64]model.Order{},
		items:        map[uint64]model.OrderItem{},
		payments:     map[uint64]model.Payment{},
		users:        map[uint64]model.User{},
		products:     map[uint64]model.Product{},
		categories:   map[uint64]model.Category{},
	}
}

func cloneMap[V any](m map[uint64]V) map[uint64]V {
	out := make(map[uint64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		tables:       cloneMap(d.tables),
		reservations: cloneMap(d.reservations),
		orders:       cloneMap(d.orders),
		items:        cloneMap(d.items),
		payments:     cloneMap(d.payments),
		users:        cloneMap(d.users),
		products:     cloneMap(d.products),
		categories:   cloneMap(d.categories),
		seq:          d.seq,
	}
}

func (d *data) nextID() uint64 {
	d.seq++
	return d.seq
}

// Store implements repository.Store in memory.
type Store struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: newData(), now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.Store = (*Store)(nil)

// WithTx runs fn with exclusive access to the store.  When fn returns an
// error or panics, every write it made is discarded.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d.clone()
	committed := false
	defer func() {
		if !committed {
			s.d = snapshot
		}
	}()
	if err := fn(view{s: s, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) Tables() repository.TableStore             { return tables{view{s: s}} }
func (s *Store) Reservations() repository.ReservationStore { return reservations{view{s: s}} }
func (s *Store) Orders() repository.OrderStore             { return orders{view{s: s}} }
func (s *Store) Payments() repository.PaymentStore         { return payments{view{s: s}} }
func (s *Store) Users() repository.UserStore               { return users{view{s: s}} }
func (s *Store) Products() repository.ProductStore         { return products{view{s: s}} }

// AddUser inserts a user as the identity service would.  A zero ID is
// assigned from the store sequence.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.d.nextID()
	} else if u.ID > s.d.seq {
		s.d.seq = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.d.users[u.ID] = u
	return u
}

// AddCategory inserts a menu category.
func (s *Store) AddCategory(c model.Category) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.d.nextID()
	} else if c.ID > s.d.seq {
		s.d.seq = c.ID
	}
	s.d.categories[c.ID] = c
	return c
}

// AddProduct inserts a menu product.
func (s *Store) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.d.nextID()
	} else if p.ID > s.d.seq {
		s.d.seq = p.ID
	}
	s.d.products[p.ID] = p
	return p
}

// view is the Repos handed out by the store.  Outside a transaction every
// call takes the lock itself; inside one the lock is already held.
type view struct {
	s    *Store
	inTx bool
}

func (v view) Tables() repository.TableStore             { return tables{v} }
func (v view) Reservations() repository.ReservationStore { return reservations{v} }
func (v view) Orders() repository.OrderStore             { return orders{v} }
func (v view) Payments() repository.PaymentStore         { return payments{v} }
func (v view) Users() repository.UserStore               { return users{v} }
func (v view) Products() repository.ProductStore         { return products{v} }

func (v view) do(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.d)
}

type tables struct{ view }

func (r tables) Create(ctx context.Context, t *model.Table) error {
	return r.do(ctx, func(d *data) error {
		for _, other := range d.tables {
			if other.Name == t.Name {
				return repository.ErrDuplicate
			}
		}
		now := r.s.now()
		t.ID = d.nextID()
		t.CreatedAt, t.UpdatedAt = now, now
		d.tables[t.ID] = *t
		return nil
	})
}

func (r tables) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	var out *model.Table
	err := r.do(ctx, func(d *data) error {
		t, ok := d.tables[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: a transaction already owns
// the whole store.
func (r tables) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Table, error) {
	return r.GetByID(ctx, id)
}

func (r tables) List(ctx context.Context) ([]model.Table, error) {
	out := make([]model.Table, 0)
	err := r.do(ctx, func(d *data) error {
		for _, t := range d.tables {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r tables) Update(ctx context.Context, t *model.Table) error {
	return r.do(ctx, func(d *data) error {
		cur, ok := d.tables[t.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for _, other := range d.tables {
			if other.ID != t.ID && other.Name == t.Name {
				return repository.ErrDuplicate
			}
		}
		cur.Name, cur.Capacity, cur.Status = t.Name, t.Capacity, t.Status
		cur.UpdatedAt = r.s.now()
		d.tables[t.ID] = cur
		*t = cur
		return nil
	})
}

func (r tables) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	return r.do(ctx, func(d *data) error {
		cur, ok := d.tables[id]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Status = status
		cur.UpdatedAt = r.s.now()
		d.tables[id] = cur
		return nil
	})
}

// Delete mirrors the foreign keys: reservations cascade, orders keep a
// nil table reference.
func (r tables) Delete(ctx context.Context, id uint64) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.tables[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.tables, id)
		for rid, res := range d.reservations {
			if res.TableID == id {
				delete(d.reservations, rid)
			}
		}
		for oid, o := range d.orders {
			if o.TableID != nil && *o.TableID == id {
				o.TableID = nil
				d.orders[oid] = o
			}
		}
		return nil
	})
}

type reservations struct{ view }

func (r reservations) Create(ctx context.Context, res *model.Reservation) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.tables[res.TableID]; !ok {
			return repository.ErrNotFound
		}
		res.ID = d.nextID()
		res.ReservationTime = res.ReservationTime.UTC()
		res.CreatedAt = r.s.now()
		d.reservations[res.ID] = *res
		return nil
	})
}

func (r reservations) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var out *model.Reservation
	err := r.do(ctx, func(d *data) error {
		res, ok := d.reservations[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r reservations) filter(ctx context.Context, keep func(model.Reservation) bool, desc bool) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	err := r.do(ctx, func(d *data) error {
		for _, res := range d.reservations {
			if keep(res) {
				out = append(out, res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ReservationTime.Equal(b.ReservationTime) {
			return a.ReservationTime.Before(b.ReservationTime) != desc
		}
		return (a.ID < b.ID) != desc
	})
	return out, err
}

func (r reservations) ListByTableBetween(ctx context.Context, tableID uint64, from, to time.Time) ([]model.Reservation, error) {
	return r.filter(ctx, func(res model.Reservation) bool {
		return res.TableID == tableID &&
			!res.ReservationTime.Before(from) && !res.ReservationTime.After(to)
	}, false)
}

func (r reservations) ListByTable(ctx context.Context, tableID uint64) ([]model.Reservation, error) {
	return r.filter(ctx, func(res model.Reservation) bool { return res.TableID == tableID }, false)
}

func (r reservations) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.filter(ctx, func(res model.Reservation) bool { return res.UserID == userID }, true)
}

func (r reservations) List(ctx context.Context) ([]model.Reservation, error) {
	return r.filter(ctx, func(model.Reservation) bool { return true }, true)
}

func (r reservations) Delete(ctx context.Context, id uint64) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.reservations[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.reservations, id)
		return nil
	})
}

type orders struct{ view }

func (r orders) Create(ctx context.Context, o *model.Order) error {
	return r.do(ctx, func(d *data) error {
		now := r.s.now()
		o.ID = d.nextID()
		o.OrderTime = o.OrderTime.UTC()
		o.CreatedAt, o.UpdatedAt = now, now
		d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r orders) Update(ctx context.Context, o *model.Order) error {
	return r.do(ctx, func(d *data) error {
		cur, ok := d.orders[o.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.TableID, cur.TotalAmount, cur.Status = o.TableID, o.TotalAmount, o.Status
		cur.UpdatedAt = r.s.now()
		d.orders[o.ID] = copyOrder(cur)
		return nil
	})
}

func (r orders) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	var out *model.Order
	err := r.do(ctx, func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		o = copyOrder(o)
		out = &o
		return nil
	})
	return out, err
}

func (r orders) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orders) filter(ctx context.Context, keep func(model.Order) bool) ([]model.Order, error) {
	out := make([]model.Order, 0)
	err := r.do(ctx, func(d *data) error {
		for _, o := range d.orders {
			if keep(o) {
				out = append(out, copyOrder(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderTime.Equal(out[j].OrderTime) {
			return out[i].OrderTime.After(out[j].OrderTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r orders) List(ctx context.Context) ([]model.Order, error) {
	return r.filter(ctx, func(model.Order) bool { return true })
}

func (r orders) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.filter(ctx, func(o model.Order) bool { return o.UserID == userID })
}

func (r orders) Delete(ctx context.Context, id uint64) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.orders[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.orders, id)
		for iid, it := range d.items {
			if it.OrderID == id {
				delete(d.items, iid)
			}
		}
		for pid, p := range d.payments {
			if p.OrderID == id {
				delete(d.payments, pid)
			}
		}
		return nil
	})
}

func (r orders) CreateItem(ctx context.Context, it *model.OrderItem) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.orders[it.OrderID]; !ok {
			return repository.ErrNotFound
		}
		it.ID = d.nextID()
		d.items[it.ID] = *it
		return nil
	})
}

func (r orders) ListItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, 0)
	err := r.do(ctx, func(d *data) error {
		for _, it := range d.items {
			if it.OrderID == orderID {
				out = append(out, it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// copyOrder detaches the table id pointer from the caller's copy.
func copyOrder(o model.Order) model.Order {
	if o.TableID != nil {
		tid := *o.TableID
		o.TableID = &tid
	}
	return o
}

type payments struct{ view }

func txnTaken(d *data, p *model.Payment) bool {
	if p.TransactionID == nil {
		return false
	}
	for _, other := range d.payments {
		if other.ID != p.ID && other.TransactionID != nil && *other.TransactionID == *p.TransactionID {
			return true
		}
	}
	return false
}

func (r payments) Create(ctx context.Context, p *model.Payment) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.orders[p.OrderID]; !ok {
			return repository.ErrNotFound
		}
		if txnTaken(d, p) {
			return repository.ErrDuplicate
		}
		p.ID = d.nextID()
		p.PaymentTime = p.PaymentTime.UTC()
		d.payments[p.ID] = copyPayment(*p)
		return nil
	})
}

func (r payments) Update(ctx context.Context, p *model.Payment) error {
	return r.do(ctx, func(d *data) error {
		if _, ok := d.payments[p.ID]; !ok {
			return repository.ErrNotFound
		}
		if txnTaken(d, p) {
			return repository.ErrDuplicate
		}
		d.payments[p.ID] = copyPayment(*p)
		return nil
	})
}

func (r payments) ListByOrder(ctx context.Context, orderID uint64) ([]model.Payment, error) {
	out := make([]model.Payment, 0)
	err := r.do(ctx, func(d *data) error {
		for _, p := range d.payments {
			if p.OrderID == orderID {
				out = append(out, copyPayment(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// copyPayment detaches the transaction id pointer from the caller's copy.
func copyPayment(p model.Payment) model.Payment {
	if p.TransactionID != nil {
		s := *p.TransactionID
		p.TransactionID = &s
	}
	return p
}

type users struct{ view }

func (r users) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var out *model.User
	err := r.do(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

type products struct{ view }

func (r products) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	var out *model.Product
	err := r.do(ctx, func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r products) List(ctx context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0)
	err := r.do(ctx, func(d *data) error {
		for _, p := range d.products {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r products) GetCategory(ctx context.Context, id uint64) (*model.Category, error) {
	var out *model.Category
	err := r.do(ctx, func(d *data) error {
		c, ok := d.categories[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}
