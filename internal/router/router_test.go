package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository/memory"
	"github.com/iliyamo/venue-booking/internal/service"
	"github.com/iliyamo/venue-booking/internal/utils"
)

const secret = "router-secret"

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type api struct {
	t        *testing.T
	e        *echo.Echo
	store    *memory.Store
	admin    string
	customer string
	other    string
	coffee   model.Product
}

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	admin := store.AddUser(model.User{Email: "staff@example.com", Role: model.RoleAdmin, IsActive: true})
	cust := store.AddUser(model.User{Email: "ana@example.com", Role: model.RoleCustomer, IsActive: true})
	other := store.AddUser(model.User{Email: "ben@example.com", Role: model.RoleCustomer, IsActive: true})
	cat := store.AddCategory(model.Category{Name: "Drinks"})
	coffee := store.AddProduct(model.Product{CategoryID: &cat.ID, Name: "Latte", Price: decimal.RequireFromString("3.50")})

	opts := []service.Option{service.WithClock(func() time.Time { return t0 })}
	rm := service.NewReservationManager(store, false, opts...)
	e := New(Handlers{
		Health:       &handler.HealthHandler{},
		Reservations: handler.NewReservationHandler(rm),
		Orders:       handler.NewOrderHandler(service.NewOrderWorkflow(store, rm, opts...)),
		Payments:     handler.NewPaymentHandler(service.NewPaymentLedger(store, opts...)),
		Tables:       handler.NewTableHandler(service.NewTableAdmin(store, opts...)),
		Products:     &handler.ProductHandler{Products: store.Products()},
	}, Options{JWTSecret: secret})

	return &api{
		t:        t,
		e:        e,
		store:    store,
		admin:    bearer(t, admin.ID, model.RoleAdmin),
		customer: bearer(t, cust.ID, model.RoleCustomer),
		other:    bearer(t, other.ID, model.RoleCustomer),
		coffee:   coffee,
	}
}

// do sends a request and decodes a JSON response into out when out is
// non-nil.
func (a *api) do(method, path, auth string, body any, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func (a *api) createTable(name string, capacity int) model.Table {
	a.t.Helper()
	var tbl model.Table
	code := a.do(http.MethodPost, "/v1/tables", a.admin, echo.Map{"name": name, "capacity": capacity}, &tbl)
	if code != http.StatusCreated {
		a.t.Fatalf("create table: status %d", code)
	}
	return tbl
}

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	OrderID uint64 `json:"order_id"`
	Partial bool   `json:"partial"`
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header not set")
	}
}

func TestAuthBoundaries(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"reserve without token", http.MethodPost, "/v1/reservations", "", http.StatusUnauthorized},
		{"customer creates table", http.MethodPost, "/v1/tables", a.customer, http.StatusForbidden},
		{"customer lists all orders", http.MethodGet, "/v1/orders", a.customer, http.StatusForbidden},
		{"customer checks consistency", http.MethodGet, "/v1/tables/consistency", a.customer, http.StatusForbidden},
		{"public table list", http.MethodGet, "/v1/tables", "", http.StatusOK},
		{"public menu", http.MethodGet, "/v1/products", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.do(tt.method, tt.path, tt.auth, echo.Map{}, nil); got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReservationFlow(t *testing.T) {
	a := newAPI(t)
	tbl := a.createTable("T1", 4)

	var res model.Reservation
	body := echo.Map{"table_id": tbl.ID, "num_people": 2, "reservation_time": t0.Format(time.RFC3339)}
	if code := a.do(http.MethodPost, "/v1/reservations", a.customer, body, &res); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if res.Status != model.ReservationBooked || !res.ReservationTime.Equal(t0) {
		t.Fatalf("unexpected reservation %+v", res)
	}

	var e errorBody
	overlap := echo.Map{"table_id": tbl.ID, "num_people": 2, "reservation_time": t0.Add(time.Hour).Format(time.RFC3339)}
	if code := a.do(http.MethodPost, "/v1/reservations", a.other, overlap, &e); code != http.StatusConflict || e.Kind != string(service.KindSlotConflict) {
		t.Fatalf("overlap: status %d kind %q", code, e.Kind)
	}

	crowd := echo.Map{"table_id": tbl.ID, "num_people": 9, "reservation_time": t0.Add(6 * time.Hour).Format(time.RFC3339)}
	if code := a.do(http.MethodPost, "/v1/reservations", a.other, crowd, &e); code != http.StatusUnprocessableEntity || e.Kind != string(service.KindCapacityExceeded) {
		t.Fatalf("capacity: status %d kind %q", code, e.Kind)
	}

	path := "/v1/reservations/" + strconv.FormatUint(res.ID, 10)
	if code := a.do(http.MethodGet, path, a.other, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign get: status %d", code)
	}
	if code := a.do(http.MethodDelete, path, a.other, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign cancel: status %d", code)
	}
	if code := a.do(http.MethodDelete, path, a.customer, nil, nil); code != http.StatusNoContent {
		t.Fatalf("cancel: status %d", code)
	}
	if code := a.do(http.MethodGet, path, a.customer, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after cancel: status %d", code)
	}

	var list struct {
		Items []model.Reservation `json:"items"`
	}
	if code := a.do(http.MethodGet, "/v1/admin/reservations", a.admin, nil, &list); code != http.StatusOK || len(list.Items) != 0 {
		t.Fatalf("admin list: status %d items %d", code, len(list.Items))
	}
}

func TestOrderPartialSuccess(t *testing.T) {
	a := newAPI(t)
	tbl := a.createTable("T1", 4)
	order := echo.Map{
		"items":      []echo.Map{{"product_id": a.coffee.ID, "quantity": 2}},
		"table_id":   tbl.ID,
		"num_people": 2,
	}

	var first service.OrderView
	if code := a.do(http.MethodPost, "/v1/orders", a.customer, order, &first); code != http.StatusCreated {
		t.Fatalf("first order: status %d", code)
	}
	if !first.TotalAmount.Equal(decimal.RequireFromString("7")) {
		t.Fatalf("total = %s, want 7", first.TotalAmount)
	}

	// The clock is fixed, so the second order asks for the same window.
	var e errorBody
	code := a.do(http.MethodPost, "/v1/orders", a.other, order, &e)
	if code != http.StatusConflict || !e.Partial || e.OrderID == 0 || e.Kind != string(service.KindSlotConflict) {
		t.Fatalf("second order: status %d body %+v", code, e)
	}

	var kept service.OrderView
	path := "/v1/orders/" + strconv.FormatUint(e.OrderID, 10)
	if code := a.do(http.MethodGet, path, a.other, nil, &kept); code != http.StatusOK || kept.Status != model.OrderPending {
		t.Fatalf("kept order: status %d view %+v", code, kept)
	}
}

func TestOrderLifecycle(t *testing.T) {
	a := newAPI(t)
	var v service.OrderView
	order := echo.Map{"items": []echo.Map{{"product_id": a.coffee.ID, "quantity": 1}}}
	if code := a.do(http.MethodPost, "/v1/orders", a.customer, order, &v); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	path := "/v1/orders/" + strconv.FormatUint(v.ID, 10)

	if code := a.do(http.MethodPatch, path+"/status", a.customer, echo.Map{"status": "COMPLETED"}, nil); code != http.StatusForbidden {
		t.Fatalf("customer status update: status %d", code)
	}
	if code := a.do(http.MethodPatch, path+"/status", a.admin, echo.Map{"status": "COMPLETED"}, &v); code != http.StatusOK || v.Status != model.OrderCompleted {
		t.Fatalf("admin status update: status %d order %+v", code, v)
	}
	var e errorBody
	if code := a.do(http.MethodDelete, path, a.customer, nil, &e); code != http.StatusConflict || e.Kind != string(service.KindConflict) {
		t.Fatalf("delete completed: status %d kind %q", code, e.Kind)
	}

	var mine struct {
		Items []service.OrderView `json:"items"`
	}
	if code := a.do(http.MethodGet, "/v1/me/orders", a.customer, nil, &mine); code != http.StatusOK || len(mine.Items) != 1 {
		t.Fatalf("me/orders: status %d items %d", code, len(mine.Items))
	}
	if code := a.do(http.MethodGet, "/v1/me/orders", a.other, nil, &mine); code != http.StatusOK || len(mine.Items) != 0 {
		t.Fatalf("other me/orders: status %d items %d", code, len(mine.Items))
	}
}

func TestPaymentCallbacks(t *testing.T) {
	a := newAPI(t)
	var v service.OrderView
	order := echo.Map{"items": []echo.Map{{"product_id": a.coffee.ID, "quantity": 1}}}
	if code := a.do(http.MethodPost, "/v1/orders", a.customer, order, &v); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	id := strconv.FormatUint(v.ID, 10)

	var rec service.Reconciliation
	path := "/v1/payments/success?orderId=" + id + "&paymentId=PAY-1&PayerID=P1"
	for i := 0; i < 2; i++ {
		if code := a.do(http.MethodGet, path, "", nil, &rec); code != http.StatusOK || !rec.OK() {
			t.Fatalf("success #%d: status %d rec %+v", i, code, rec)
		}
	}
	payments, err := a.store.Payments().ListByOrder(context.Background(), v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 || payments[0].Status != model.PaymentCompleted {
		t.Fatalf("payments after reconcile: %+v", payments)
	}

	if code := a.do(http.MethodGet, "/v1/payments/cancel?orderId=999", "", nil, &rec); code != http.StatusInternalServerError || rec.OK() {
		t.Fatalf("cancel unknown order: status %d rec %+v", code, rec)
	}
	if code := a.do(http.MethodGet, "/v1/payments/success?orderId=abc", "", nil, &rec); code != http.StatusInternalServerError {
		t.Fatalf("bad order id: status %d", code)
	}
}

func TestMenuAndConsistency(t *testing.T) {
	a := newAPI(t)
	var menu struct {
		Items []handler.PublicProduct `json:"items"`
	}
	if code := a.do(http.MethodGet, "/v1/products", "", nil, &menu); code != http.StatusOK {
		t.Fatalf("menu: status %d", code)
	}
	if len(menu.Items) != 1 || menu.Items[0].Category != "Drinks" {
		t.Fatalf("menu = %+v", menu.Items)
	}
	if code := a.do(http.MethodGet, "/v1/products/999", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing product: status %d", code)
	}

	tbl := a.createTable("T1", 4)
	body := echo.Map{"table_id": tbl.ID, "num_people": 2, "reservation_time": t0.Format(time.RFC3339)}
	if code := a.do(http.MethodPost, "/v1/reservations", a.customer, body, nil); code != http.StatusCreated {
		t.Fatalf("reserve: status %d", code)
	}

	var report struct {
		Consistent bool            `json:"consistent"`
		Drift      []service.Drift `json:"drift"`
	}
	// Hours after the window ends the table is still flagged BOOKED.
	path := "/v1/tables/consistency?at=" + t0.Add(5*time.Hour).Format(time.RFC3339)
	if code := a.do(http.MethodGet, path, a.admin, nil, &report); code != http.StatusOK {
		t.Fatalf("consistency: status %d", code)
	}
	if report.Consistent || len(report.Drift) != 1 || report.Drift[0].TableID != tbl.ID {
		t.Fatalf("report = %+v", report)
	}
	if code := a.do(http.MethodDelete, "/v1/tables/"+strconv.FormatUint(tbl.ID, 10), a.admin, nil, nil); code != http.StatusConflict {
		t.Fatalf("delete reserved table: status %d", code)
	}
}

func TestReservationAcceptsZonelessTime(t *testing.T) {
	a := newAPI(t)
	tbl := a.createTable("T1", 4)
	var res model.Reservation
	body := echo.Map{"table_id": tbl.ID, "num_people": 2, "reservation_time": "2024-01-01T10:00"}
	if code := a.do(http.MethodPost, "/v1/reservations", a.customer, body, &res); code != http.StatusCreated {
		t.Fatalf("status %d", code)
	}
	if !res.ReservationTime.Equal(t0) {
		t.Fatalf("reservation_time = %v, want %v", res.ReservationTime, t0)
	}
	body["reservation_time"] = "soon"
	if code := a.do(http.MethodPost, "/v1/reservations", a.customer, body, nil); code != http.StatusBadRequest {
		t.Fatalf("garbage time: status %d", code)
	}
}
