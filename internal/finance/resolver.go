package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// CategoryResolver turns a category reference (id or name) into a stored
// category, creating it when nothing matches.
type CategoryResolver struct {
	store store.CategoryStore
}

// NewCategoryResolver creates a resolver backed by s.
func NewCategoryResolver(s store.CategoryStore) *CategoryResolver {
	return &CategoryResolver{store: s}
}

// Resolve finds the category referenced by ref. A ref that parses as an id
// is looked up by id first; otherwise, or when no category has that id, the
// trimmed ref is matched by name ignoring case. When nothing matches a new
// category named ref is created with txType and icon.
func (r *CategoryResolver) Resolve(ctx context.Context, ref string, txType model.TransactionType, icon string) (*model.Category, error) {
	name := model.NormalizeCategoryName(ref)
	if name == "" {
		return nil, model.NewValidationError("category", "Category is required")
	}
	if err := model.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	if id, err := uuid.Parse(name); err == nil {
		c, err := r.store.GetCategory(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("get category %s: %w", id, err)
		}
	}

	c, err := r.store.FindCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}

	if icon == "" {
		icon = model.DefaultCategoryIcon
	}
	if err := model.ValidateCategoryIcon(icon); err != nil {
		return nil, err
	}
	c, err = r.store.FindOrCreateCategory(ctx, &model.Category{
		Name: name,
		Type: txType,
		Icon: icon,
	})
	if err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return c, nil
}
