// Package defaults holds the fixed categories and budgets every new user starts with.
package defaults

import (
	"github.com/shopspring/decimal"

	"github.com/mcclellann/moneymap/pkg/models"
)

// CategorySeed names one default category.
type CategorySeed struct {
	Name string
	Type models.EntryType
}

// BudgetSeed is the default monthly amount for an expense category.
type BudgetSeed struct {
	Category string
	Amount   decimal.Decimal
}

// InsuranceCategory is the expense category loan payments are mirrored into.
const InsuranceCategory = "Insurance"

var incomeCategories = [...]string{
	"Salary", "Freelance", "Bonus", "Investment Returns", "Gifts", "Other Income",
}

var expenseBudgets = [...]struct {
	name   string
	amount int64
}{
	{"Food & Dining", 5000},
	{"Transportation", 3000},
	{"Shopping", 4000},
	{"Utilities", 2000},
	{"Healthcare", 2000},
	{"Entertainment", 2000},
	{"Education", 3000},
	{InsuranceCategory, 1500},
	{"Home & Rent", 10000},
	{"Personal Care", 1000},
	{"Phone & Internet", 1000},
	{"Gifts & Donations", 1000},
	{"Other Expense", 2000},
}

// Categories returns a fresh copy of the default categories, income first.
func Categories() []CategorySeed {
	out := make([]CategorySeed, 0, len(incomeCategories)+len(expenseBudgets))
	for _, name := range incomeCategories {
		out = append(out, CategorySeed{Name: name, Type: models.EntryTypeIncome})
	}
	for _, b := range expenseBudgets {
		out = append(out, CategorySeed{Name: b.name, Type: models.EntryTypeExpense})
	}
	return out
}

// Budgets returns a fresh copy of the default monthly budgets.
func Budgets() []BudgetSeed {
	out := make([]BudgetSeed, 0, len(expenseBudgets))
	for _, b := range expenseBudgets {
		out = append(out, BudgetSeed{Category: b.name, Amount: decimal.NewFromInt(b.amount)})
	}
	return out
}
