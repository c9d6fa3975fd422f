package reconcile

import (
	"fmt"
	"time"

	"push-manager/core/kvstore"
)

// Keys of the persisted selection inside a session's key/value scope.
const (
	KeySelectedCategory    = "selected_category"
	KeyExternalID          = "external_id"
	KeyLastAppliedCategory = "last_applied_category"
	KeyLastAppliedAt       = "last_applied_at"
)

// LoadSelection reads the persisted selection from store.
func LoadSelection(store kvstore.Store) (PersistedSelection, error) {
	var sel PersistedSelection

	fields := []struct {
		key string
		dst *string
	}{
		{KeySelectedCategory, &sel.SelectedCategoryID},
		{KeyExternalID, &sel.ExternalID},
		{KeyLastAppliedCategory, &sel.LastAppliedCategoryID},
	}
	for _, f := range fields {
		v, _, err := store.Get(f.key)
		if err != nil {
			return PersistedSelection{}, err
		}
		*f.dst = v
	}

	raw, ok, err := store.Get(KeyLastAppliedAt)
	if err != nil {
		return PersistedSelection{}, err
	}
	if ok && raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return PersistedSelection{}, fmt.Errorf("invalid %s value %q: %w", KeyLastAppliedAt, raw, err)
		}
		sel.LastAppliedAt = &ts
	}

	return sel, nil
}

// saveApplied writes a confirmed application in one step, so a failed
// write leaves the previous record intact.
func saveApplied(store kvstore.Store, categoryID string, at time.Time) error {
	return store.SetAll(map[string]string{
		KeySelectedCategory:    categoryID,
		KeyLastAppliedCategory: categoryID,
		KeyLastAppliedAt:       at.UTC().Format(time.RFC3339Nano),
	})
}

// clearApplied drops the application record but keeps the selection.
func clearApplied(store kvstore.Store) error {
	if err := store.Remove(KeyLastAppliedCategory); err != nil {
		return err
	}
	return store.Remove(KeyLastAppliedAt)
}
