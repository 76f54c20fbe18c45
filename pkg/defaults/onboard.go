package defaults

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcclellann/moneymap/pkg/models"
)

// Seeder is the storage a new account's defaults are written to.
type Seeder interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	CreateBudget(ctx context.Context, budget *models.Budget) error
}

// Onboard creates the default categories for userID and a budget for the month of now
// on every expense category. It keeps going past individual failures and returns them
// joined.
func Onboard(ctx context.Context, s Seeder, userID uuid.UUID, now time.Time) error {
	var errs []error
	ids := make(map[string]uuid.UUID)

	for _, seed := range Categories() {
		c := &models.Category{ID: uuid.New(), UserID: userID, Name: seed.Name, Type: seed.Type}
		if err := s.CreateCategory(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("category %q: %w", seed.Name, err))
			continue
		}
		if seed.Type == models.EntryTypeExpense {
			ids[seed.Name] = c.ID
		}
	}

	month := now.UTC().Format("2006-01")
	for _, seed := range Budgets() {
		id, ok := ids[seed.Category]
		if !ok {
			continue
		}
		b := &models.Budget{ID: uuid.New(), UserID: userID, CategoryID: &id, Month: month, Amount: seed.Amount}
		if err := s.CreateBudget(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("budget %q: %w", seed.Category, err))
		}
	}

	return errors.Join(errs...)
}
