package report

import "github.com/pujar/labbill/internal/domain/billing"

// Document is the fully formatted report. Every display string is computed
// here so each output format only lays it out.
type Document struct {
	Branding Branding    `json:"branding"`
	Patient  PatientInfo `json:"patient"`
	Doctors  []string    `json:"doctors"`
	Items    []Item      `json:"items"`
	Total    int         `json:"total"`
	// TotalText is Total formatted in rupees.
	TotalText string                `json:"total_text"`
	Record    billing.PatientRecord `json:"record"`
}

type PatientInfo struct {
	Name string `json:"name"`
	Age  string `json:"age"`
	Sex  string `json:"sex"`
	Date string `json:"date"`
}

type Item struct {
	Name       string `json:"name"`
	Variant    string `json:"variant,omitempty"`
	Amount     int    `json:"amount"`
	AmountText string `json:"amount_text"`
}

func newDocument(b Branding, rec billing.PatientRecord) *Document {
	rec = rec.Clone()
	doc := &Document{
		Branding: b,
		Patient: PatientInfo{
			Name: rec.Name,
			Age:  FormatAge(rec.Age),
			Sex:  rec.Sex,
			Date: FormatDate(rec.Date),
		},
		Doctors: rec.ReferredDoctors,
		Items:   make([]Item, 0, len(rec.SelectedTests)),
		Record:  rec,
	}
	for _, it := range rec.SelectedTests {
		doc.Items = append(doc.Items, Item{
			Name:       it.Name,
			Variant:    it.Variant,
			Amount:     it.Price,
			AmountText: FormatINR(it.Price),
		})
	}
	doc.Total = billing.Total(rec.SelectedTests)
	doc.TotalText = FormatINR(doc.Total)
	return doc
}
