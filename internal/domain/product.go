package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAll is the catalog filter value that disables category filtering.
const CategoryAll = "all"

// NormalizeCategory trims and lowercases a category filter. The empty filter
// becomes CategoryAll.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return CategoryAll
	}
	return category
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	Image       string          `json:"image"`
	Tags        string          `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
