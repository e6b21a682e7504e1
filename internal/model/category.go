package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultCategoryIcon is used when a category is created without an icon.
const DefaultCategoryIcon = "default-icon"

const (
	MaxCategoryNameLen = 100
	MaxCategoryIconLen = 50
)

// Category represents a transaction category. Categories are shared across
// users and matched by name case-insensitively.
type Category struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	Icon      string          `json:"icon"`
	IsSavings bool            `json:"isSavings"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NormalizeCategoryName trims surrounding whitespace from a category name.
func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(name)
}

// CategoryKey is the uniqueness key of a category name.
func CategoryKey(name string) string {
	return strings.ToLower(NormalizeCategoryName(name))
}

// ValidateCategoryName rejects names longer than a category can store.
func ValidateCategoryName(name string) error {
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return NewValidationError("category", fmt.Sprintf("Category name cannot exceed %d characters", MaxCategoryNameLen))
	}
	return nil
}

// ValidateCategoryIcon rejects icons longer than a category can store.
func ValidateCategoryIcon(icon string) error {
	if utf8.RuneCountInString(icon) > MaxCategoryIconLen {
		return NewValidationError("icon", fmt.Sprintf("Icon cannot exceed %d characters", MaxCategoryIconLen))
	}
	return nil
}
