package billing

import (
	"iter"
	"slices"
	"time"
)

// Builder holds one in-progress PatientRecord and the pending test
// selection. It is not safe for concurrent use; SessionStore serialises
// access per session.
type Builder struct {
	catalog *Catalog
	record  PatientRecord

	candidate string
	price     *int
	variant   string
}

// NewBuilder starts an empty record dated today.
func NewBuilder(catalog *Catalog, today time.Time) *Builder {
	return &Builder{
		catalog: catalog,
		record: PatientRecord{
			Date:            today.Format(DateLayout),
			ReferredDoctors: []string{},
			SelectedTests:   []LineItem{},
		},
	}
}

// SetField assigns one identity field. Values are checked only by Finalize.
func (b *Builder) SetField(field, value string) error {
	switch field {
	case "name":
		b.record.Name = value
	case "age":
		b.record.Age = value
	case "sex":
		b.record.Sex = value
	case "date":
		b.record.Date = value
	default:
		return ErrUnknownField
	}
	return nil
}

// ToggleDoctor removes doctor if referred, otherwise appends it.
func (b *Builder) ToggleDoctor(doctor string) {
	if i := slices.Index(b.record.ReferredDoctors, doctor); i >= 0 {
		b.record.ReferredDoctors = slices.Delete(b.record.ReferredDoctors, i, i+1)
		return
	}
	b.record.ReferredDoctors = append(b.record.ReferredDoctors, doctor)
}

// SelectTestCandidate points the pending selection at a test and clears any
// chosen price, since prices belong to one test.
func (b *Builder) SelectTestCandidate(name string) {
	b.candidate = name
	b.price = nil
	b.variant = ""
}

// SelectPriceForCandidate picks one of the candidate's catalog prices and
// resolves its variant.
func (b *Builder) SelectPriceForCandidate(price int) error {
	if b.candidate == "" {
		return ErrInvalidSelection
	}
	entry, ok := b.catalog.Lookup(b.candidate)
	if !ok {
		return ErrInvalidSelection
	}
	opt, ok := entry.PriceFor(price)
	if !ok {
		return ErrInvalidSelection
	}
	p := opt.Price
	b.price = &p
	b.variant = opt.Variant
	return nil
}

// CommitTest appends the pending selection as a line item. On failure the
// pending selection is kept so the caller can retry.
func (b *Builder) CommitTest() error {
	if b.candidate == "" || b.price == nil {
		return ErrIncompleteSelection
	}
	b.record.SelectedTests = append(b.record.SelectedTests, LineItem{
		Name:    b.candidate,
		Price:   *b.price,
		Variant: b.variant,
	})
	b.SelectTestCandidate("")
	return nil
}

func (b *Builder) RemoveTest(index int) error {
	if index < 0 || index >= len(b.record.SelectedTests) {
		return ErrIndexOutOfRange
	}
	b.record.SelectedTests = slices.Delete(b.record.SelectedTests, index, index+1)
	return nil
}

func (b *Builder) ComputeTotal() int {
	return Total(b.record.SelectedTests)
}

func (b *Builder) FilterCatalog(query string) iter.Seq[CatalogEntry] {
	return b.catalog.Filter(query)
}

// Finalize returns a snapshot of the record, or a *ValidationError naming
// the first failed check: identity fields, then doctors, then tests.
// The live record stays editable and shares nothing with the snapshot.
func (b *Builder) Finalize() (PatientRecord, error) {
	r := b.record
	switch {
	case r.Name == "" || r.Age == "" || r.Sex == "":
		return PatientRecord{}, &ValidationError{Check: CheckIdentity}
	case len(r.ReferredDoctors) == 0:
		return PatientRecord{}, &ValidationError{Check: CheckDoctors}
	case len(r.SelectedTests) == 0:
		return PatientRecord{}, &ValidationError{Check: CheckTests}
	}
	return r.Clone(), nil
}

// Record returns a copy of the live record.
func (b *Builder) Record() PatientRecord {
	return b.record.Clone()
}

// Pending describes the uncommitted selection and the candidate's options.
func (b *Builder) Pending() Pending {
	p := Pending{Test: b.candidate, Variant: b.variant, Options: []PriceOption{}}
	if b.price != nil {
		v := *b.price
		p.Price = &v
	}
	if entry, ok := b.catalog.Lookup(b.candidate); ok {
		p.ValidTest = true
		p.Options = entry.Prices
	}
	return p
}
