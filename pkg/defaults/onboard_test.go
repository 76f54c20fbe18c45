package defaults

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcclellann/moneymap/pkg/models"
)

type recordingSeeder struct {
	categories []*models.Category
	budgets    []*models.Budget
	failOn     string
}

func (r *recordingSeeder) CreateCategory(_ context.Context, c *models.Category) error {
	if c.Name == r.failOn {
		return errors.New("duplicate")
	}
	r.categories = append(r.categories, c)
	return nil
}

func (r *recordingSeeder) CreateBudget(_ context.Context, b *models.Budget) error {
	r.budgets = append(r.budgets, b)
	return nil
}

func TestOnboard(t *testing.T) {
	s := &recordingSeeder{}
	user := uuid.New()

	err := Onboard(context.Background(), s, user, time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, s.categories, 19)
	assert.Len(t, s.budgets, 13)

	byID := make(map[uuid.UUID]*models.Category)
	for _, c := range s.categories {
		assert.Equal(t, user, c.UserID)
		byID[c.ID] = c
	}
	for _, b := range s.budgets {
		assert.Equal(t, "2024-03", b.Month)
		require.NotNil(t, b.CategoryID)
		c, ok := byID[*b.CategoryID]
		require.True(t, ok)
		assert.Equal(t, models.EntryTypeExpense, c.Type)
	}
}

func TestOnboard_ContinuesPastFailures(t *testing.T) {
	s := &recordingSeeder{failOn: InsuranceCategory}

	err := Onboard(context.Background(), s, uuid.New(), time.Now())
	assert.ErrorContains(t, err, InsuranceCategory)

	assert.Len(t, s.categories, 18)
	assert.Len(t, s.budgets, 12)
}
