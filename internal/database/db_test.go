package database

import (
	"strings"
	"testing"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		pass string
		want string
	}{
		{"with password", "secret", "venue:secret@tcp(db:3306)/venue?"},
		{"without password", "", "venue@tcp(db:3306)/venue?"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dsn := DSN("venue", tc.pass, "db", "3306", "venue")
			if !strings.HasPrefix(dsn, tc.want) {
				t.Fatalf("DSN = %q, want prefix %q", dsn, tc.want)
			}
			for _, opt := range []string{"parseTime=true", "loc=UTC", "clientFoundRows=true"} {
				if !strings.Contains(dsn, opt) {
					t.Errorf("DSN %q lacks %s", dsn, opt)
				}
			}
		})
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, table := range []string{"venue_tables", "reservations", "orders", "order_items", "payments", "products", "categories", "users"} {
		if !strings.Contains(Schema(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema does not create %s idempotently", table)
		}
	}
	if !strings.Contains(Schema(), "REFERENCES venue_tables (id) ON DELETE SET NULL") {
		t.Error("orders must keep a nullable table reference")
	}
}
