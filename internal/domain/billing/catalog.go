package billing

import (
	"iter"
	"slices"
	"strings"
)

// PriceOption is one price tier of a catalog test. Variant may be empty.
type PriceOption struct {
	Variant string `json:"variant" mapstructure:"variant"`
	Price   int    `json:"price" mapstructure:"price" validate:"gte=0"`
}

// CatalogEntry is a diagnostic test offered by the laboratory.
type CatalogEntry struct {
	Name     string        `json:"name" mapstructure:"name" validate:"required"`
	Category string        `json:"category" mapstructure:"category"`
	Prices   []PriceOption `json:"prices" mapstructure:"prices" validate:"required,min=1,dive"`
}

// PriceFor returns the option offering price. Prices are unique within an
// entry, so the match is unambiguous.
func (e CatalogEntry) PriceFor(price int) (PriceOption, bool) {
	for _, p := range e.Prices {
		if p.Price == price {
			return p, true
		}
	}
	return PriceOption{}, false
}

func (e CatalogEntry) clone() CatalogEntry {
	e.Prices = slices.Clone(e.Prices)
	return e
}

// Catalog is the read-only test catalog, kept in declaration order.
type Catalog struct {
	entries []CatalogEntry
	byName  map[string]int
}

// NewCatalog copies entries into a Catalog. Later entries with a duplicate
// name are ignored by Lookup; ReferenceData.Validate rejects them upfront.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		entries: make([]CatalogEntry, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.entries[i] = e.clone()
		if _, dup := c.byName[e.Name]; !dup {
			c.byName[e.Name] = i
		}
	}
	return c
}

// Lookup finds a test by exact name.
func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i].clone(), true
}

// Entries returns a copy of every entry in declaration order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

func (c *Catalog) Len() int { return len(c.entries) }

// Filter yields the entries whose name or category contains query, ignoring
// case. An empty query yields the whole catalog. Order is never re-ranked.
func (c *Catalog) Filter(query string) iter.Seq[CatalogEntry] {
	q := strings.ToLower(query)
	return func(yield func(CatalogEntry) bool) {
		for _, e := range c.entries {
			if q != "" &&
				!strings.Contains(strings.ToLower(e.Name), q) &&
				!strings.Contains(strings.ToLower(e.Category), q) {
				continue
			}
			if !yield(e.clone()) {
				return
			}
		}
	}
}

// Roster is the read-only list of referring doctors.
type Roster struct {
	doctors []string
	set     map[string]struct{}
}

func NewRoster(doctors []string) *Roster {
	r := &Roster{doctors: slices.Clone(doctors), set: make(map[string]struct{}, len(doctors))}
	for _, d := range doctors {
		r.set[d] = struct{}{}
	}
	return r
}

func (r *Roster) Contains(doctor string) bool {
	_, ok := r.set[doctor]
	return ok
}

func (r *Roster) Doctors() []string { return slices.Clone(r.doctors) }
