package billing

import (
	"strings"
	"testing"
)

func TestDefaultReferenceData_Valid(t *testing.T) {
	ref := DefaultReferenceData()
	if err := ref.Validate(); err != nil {
		t.Fatalf("expected built-in reference data to be valid, got %v", err)
	}
	if len(ref.Doctors) != 6 {
		t.Errorf("expected 6 doctors, got %d", len(ref.Doctors))
	}
	if len(ref.Catalog) != 8 {
		t.Errorf("expected 8 tests, got %d", len(ref.Catalog))
	}
}

func TestReferenceData_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ReferenceData)
		wantErr string
	}{
		{"no doctors", func(r *ReferenceData) { r.Doctors = nil }, "Doctors"},
		{"duplicate doctor", func(r *ReferenceData) { r.Doctors = append(r.Doctors, r.Doctors[0]) }, "Doctors"},
		{"empty doctor", func(r *ReferenceData) { r.Doctors = append(r.Doctors, "") }, "Doctors"},
		{"no catalog", func(r *ReferenceData) { r.Catalog = nil }, "Catalog"},
		{"duplicate test name", func(r *ReferenceData) { r.Catalog = append(r.Catalog, r.Catalog[0]) }, "Catalog"},
		{"test without prices", func(r *ReferenceData) {
			r.Catalog = append(r.Catalog, CatalogEntry{Name: "LIPID PROFILE", Category: "Biochemistry"})
		}, "Prices"},
		{"test without name", func(r *ReferenceData) {
			r.Catalog = append(r.Catalog, CatalogEntry{Prices: []PriceOption{{Price: 10}}})
		}, "Name"},
		{"negative price", func(r *ReferenceData) {
			r.Catalog = append(r.Catalog, CatalogEntry{Name: "URINE", Prices: []PriceOption{{Price: -1}}})
		}, "Price"},
		{"ambiguous price", func(r *ReferenceData) {
			r.Catalog = append(r.Catalog, CatalogEntry{Name: "LFT", Prices: []PriceOption{
				{Variant: "Basic", Price: 400},
				{Variant: "Extended", Price: 400},
			}})
		}, "offers price 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := DefaultReferenceData()
			tt.mutate(&ref)
			err := ref.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
