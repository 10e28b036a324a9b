package billing

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ReferenceData is the static input loaded at process start.
type ReferenceData struct {
	Doctors []string       `json:"doctors" mapstructure:"doctors" validate:"required,min=1,unique,dive,required"`
	Catalog []CatalogEntry `json:"catalog" mapstructure:"catalog" validate:"required,min=1,unique=Name,dive"`
}

var validate = validator.New()

// Validate checks the struct rules and that no price repeats inside one
// catalog entry, which the price to variant lookup depends on.
func (r ReferenceData) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid reference data: %w", err)
	}
	for _, e := range r.Catalog {
		seen := make(map[int]string, len(e.Prices))
		for _, p := range e.Prices {
			if other, dup := seen[p.Price]; dup {
				return fmt.Errorf("invalid reference data: test %q offers price %d for both %q and %q",
					e.Name, p.Price, other, p.Variant)
			}
			seen[p.Price] = p.Variant
		}
	}
	return nil
}

func (r ReferenceData) NewCatalog() *Catalog { return NewCatalog(r.Catalog) }

func (r ReferenceData) NewRoster() *Roster { return NewRoster(r.Doctors) }

// DefaultReferenceData returns the laboratory's built-in roster and catalog.
func DefaultReferenceData() ReferenceData {
	return ReferenceData{
		Doctors: []string{
			"Dr. Santosh Pujari (MS - Ayu, ENT, Ph.D)",
			"Dr. Vinod JB (MS - Ayu)",
			"Dr. Avinash Bhavikatti (MBBS, MS, Surgical Gastroenterology)",
			"Dr. Divya Bhavikatti (MBBS, MS - OBG)",
			"Dr. Sana Kouser Jamadar (MBBS, Family Physician)",
			"Dr. Vijaykumar Nayak (MS - Ayu, Ph.D)",
		},
		Catalog: []CatalogEntry{
			{Name: "CBC", Category: "Haematology", Prices: []PriceOption{{Variant: "Standard", Price: 300}, {Variant: "Premium", Price: 350}}},
			{Name: "Hb%", Category: "Haematology", Prices: []PriceOption{{Price: 100}}},
			{Name: "ESR", Category: "Haematology", Prices: []PriceOption{{Price: 200}}},
			{Name: "BRUCELLA", Category: "Serology", Prices: []PriceOption{{Price: 850}}},
			{Name: "THYROID PROFILE", Category: "Endocrinology", Prices: []PriceOption{{Price: 700}}},
			{Name: "CD4, CD8", Category: "Immunology", Prices: []PriceOption{{Price: 2200}}},
			{Name: "WESTREN'S BLOT", Category: "Serology", Prices: []PriceOption{{Price: 3000}}},
			{Name: "HBA1C", Category: "Diabetes", Prices: []PriceOption{{Price: 850}}},
		},
	}
}
