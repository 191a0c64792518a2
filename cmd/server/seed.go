package main

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository/memory"
	"github.com/iliyamo/venue-booking/internal/utils"
)

// seedDemo fills a memory store with the accounts and menu that the
// identity and menu services would own in production.  Tables are left
// to the admin API.
func seedDemo(s *memory.Store) {
	s.AddUser(model.User{ID: 1, Email: "admin@venue.local", Role: model.RoleAdmin, IsActive: true})
	s.AddUser(model.User{ID: 2, Email: "guest@venue.local", Role: model.RoleCustomer, IsActive: true})

	drinks := s.AddCategory(model.Category{Name: "Drinks"})
	food := s.AddCategory(model.Category{Name: "Food"})
	s.AddProduct(model.Product{CategoryID: &drinks.ID, Name: "Espresso", Price: decimal.RequireFromString("2.50")})
	s.AddProduct(model.Product{CategoryID: &drinks.ID, Name: "Lemonade", Price: decimal.RequireFromString("3.20")})
	s.AddProduct(model.Product{CategoryID: &food.ID, Name: "Club Sandwich", Price: decimal.RequireFromString("8.90")})
}

// logDemoTokens prints day-long tokens for the seeded accounts so a local
// run can be exercised with curl straight away.
func logDemoTokens(secret string, log *zap.Logger) {
	for _, acct := range []struct {
		id   uint64
		role string
	}{{1, model.RoleAdmin}, {2, model.RoleCustomer}} {
		tok, err := utils.NewAccessToken(secret, acct.id, acct.role, 24*time.Hour)
		if err != nil {
			log.Warn("demo token", zap.Error(err))
			return
		}
		log.Info("demo token", zap.Uint64("user_id", acct.id), zap.String("role", acct.role), zap.String("token", tok.Token))
	}
}
