package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category is one selectable notification channel.
type Category struct {
	// ID is the unique identifier and the tag key used at the push provider.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Description is a short summary.
	Description string `json:"description"`
	// Body is the confirmation text shown when the category is chosen.
	Body string `json:"body"`
}

// Catalog is an ordered, immutable list of categories.
type Catalog struct {
	items []Category
	index map[string]int
}

var (
	// ErrEmpty is returned when a catalog has no categories.
	ErrEmpty = errors.New("catalog is empty")
	// ErrDuplicateID is returned when two categories share an id.
	ErrDuplicateID = errors.New("duplicate category id")
	// ErrReservedID is returned for ids that clash with metadata tags.
	ErrReservedID = errors.New("reserved category id")
)

// SelectedAtTag is the metadata tag written next to the category tag. No
// category may use it as id.
const SelectedAtTag = "category_selected_at"

// New builds a catalog from the given categories, preserving order.
func New(items []Category) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	c := &Catalog{
		items: make([]Category, len(items)),
		index: make(map[string]int, len(items)),
	}
	copy(c.items, items)

	for i, item := range c.items {
		if item.ID == "" {
			return nil, fmt.Errorf("category at position %d has no id", i)
		}
		if item.ID == SelectedAtTag {
			return nil, fmt.Errorf("%w: %s", ErrReservedID, item.ID)
		}
		if _, exists := c.index[item.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
		c.index[item.ID] = i
	}

	return c, nil
}

// Parse decodes a JSON array of categories into a catalog.
func Parse(data []byte) (*Catalog, error) {
	var items []Category
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(items)
}

// All returns a copy of the categories in catalog order.
func (c *Catalog) All() []Category {
	out := make([]Category, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns every category id in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	return ids
}

// Get returns the category with the given id.
func (c *Catalog) Get(id string) (Category, bool) {
	i, ok := c.index[id]
	if !ok {
		return Category{}, false
	}
	return c.items[i], true
}

// Has reports whether id is part of the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Others returns every id except the given one, in catalog order.
func (c *Catalog) Others(id string) []string {
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		if item.ID != id {
			out = append(out, item.ID)
		}
	}
	return out
}

// MarshalJSON encodes the catalog as a plain array.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.items)
}
