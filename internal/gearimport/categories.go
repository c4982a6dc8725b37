package gearimport

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var wholeNumber = regexp.MustCompile(`^\d+$`)

// parseCategoryID returns s as a category id when it is all digits.
func parseCategoryID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !wholeNumber.MatchString(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DetectUnknownCategories returns the distinct trimmed values of column col
// below the header that match no existing category name, compared
// case-insensitively. Values differing only in case are reported once, in
// their first-seen spelling and order.
func DetectUnknownCategories(ctx context.Context, store Store, sheet SheetReader, header HeaderRow, col int) ([]string, error) {
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[strings.ToLower(c.Name)] = true
	}

	seen := make(map[string]bool)
	var unknown []string
	for i := header.Row + 1; i <= sheet.RowCount(); i++ {
		row := sheet.Row(i)
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !known[key] {
			unknown = append(unknown, v)
		}
	}

	return unknown, nil
}

// EnsureRequested creates every category whose resolution is "create".
// A category whose name matches case-insensitively is reused, and each
// name is returned once.
func EnsureRequested(ctx context.Context, store Store, resolutions map[string]string) ([]Category, error) {
	var created []Category
	done := make(map[string]bool)
	for _, raw := range sortedKeys(resolutions) {
		if !strings.EqualFold(strings.TrimSpace(resolutions[raw]), ResolutionCreate) {
			continue
		}
		key := strings.ToLower(raw)
		if done[key] {
			continue
		}
		done[key] = true

		existing, err := store.FindCategoryByNameFold(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("find category %q: %w", raw, err)
		}
		if existing != nil {
			created = append(created, *existing)
			continue
		}
		c, err := store.CreateOrGetCategory(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", raw, err)
		}
		created = append(created, c)
	}
	return created, nil
}

// CategoryCache memoises resolution per raw value for one import run.
// A nil entry records that the value resolves to no category.
type CategoryCache map[string]*Category

// CategoryResolver turns raw category cells into categories.
type CategoryResolver struct {
	store       Store
	unknown     map[string]bool
	resolutions map[string]string
}

// NewCategoryResolver builds a resolver from the unknown values and their
// resolutions recorded on a session.
func NewCategoryResolver(store Store, unknown []string, resolutions map[string]string) *CategoryResolver {
	u := make(map[string]bool, len(unknown))
	for _, v := range unknown {
		u[strings.ToLower(v)] = true
	}
	return &CategoryResolver{store: store, unknown: u, resolutions: resolutions}
}

// WithStore returns a resolver reading from store, typically a transaction.
func (r *CategoryResolver) WithStore(store Store) *CategoryResolver {
	c := *r
	c.store = store
	return &c
}

// Resolve returns the category for raw, or nil for none.
//
// Values that matched a category during mapping resolve by name. For
// unknown values the resolution decides:
//
//	absent, "skip"  exact name, then raw as a numeric id
//	"create"        case-insensitive name
//	anything else   the resolution is a category id
func (r *CategoryResolver) Resolve(ctx context.Context, raw string, cache CategoryCache) (*Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if c, ok := cache[raw]; ok {
		return c, nil
	}

	c, err := r.resolve(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("resolve category %q: %w", raw, err)
	}
	if cache != nil {
		cache[raw] = c
	}
	return c, nil
}

func (r *CategoryResolver) resolve(ctx context.Context, raw string) (*Category, error) {
	if !r.unknown[strings.ToLower(raw)] {
		c, err := r.store.FindCategoryByName(ctx, raw)
		if err != nil || c != nil {
			return c, err
		}
		return r.store.FindCategoryByNameFold(ctx, raw)
	}

	resolution := strings.TrimSpace(r.resolutionFor(raw))
	switch strings.ToLower(resolution) {
	case "", ResolutionSkip:
		c, err := r.store.FindCategoryByName(ctx, raw)
		if err != nil || c != nil {
			return c, err
		}
		if id, ok := parseCategoryID(raw); ok {
			return r.store.FindCategoryByID(ctx, id)
		}
		return nil, nil
	case ResolutionCreate:
		return r.store.FindCategoryByNameFold(ctx, raw)
	}

	id, ok := parseCategoryID(resolution)
	if !ok {
		return nil, nil
	}
	return r.store.FindCategoryByID(ctx, id)
}

// resolutionFor returns the decision recorded for raw. Case variants of an
// unknown value share the decision made for its first spelling.
func (r *CategoryResolver) resolutionFor(raw string) string {
	if res, ok := r.resolutions[raw]; ok {
		return res
	}
	for k, res := range r.resolutions {
		if strings.EqualFold(k, raw) {
			return res
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
