package billing

// Sex values accepted on a patient record.
const (
	SexMale   = "Male"
	SexFemale = "Female"
	SexOther  = "Other"
)

// DateLayout is the calendar date format stored on a record.
const DateLayout = "2006-01-02"

// PatientRecord is the billing record handed from the builder to the report.
// The JSON shape is the handoff format.
type PatientRecord struct {
	Name            string     `json:"name"`
	Age             string     `json:"age"`
	Sex             string     `json:"sex"`
	Date            string     `json:"date"`
	ReferredDoctors []string   `json:"referredDoctors"`
	SelectedTests   []LineItem `json:"selectedTests"`
}

// LineItem is one priced diagnostic test on a record.
type LineItem struct {
	Name    string `json:"name"`
	Price   int    `json:"price"`
	Variant string `json:"variant"`
}

// Clone returns a structural copy that shares no slices with r.
func (r PatientRecord) Clone() PatientRecord {
	out := r
	out.ReferredDoctors = append(make([]string, 0, len(r.ReferredDoctors)), r.ReferredDoctors...)
	out.SelectedTests = append(make([]LineItem, 0, len(r.SelectedTests)), r.SelectedTests...)
	return out
}

// Total is the sum of the line item prices; zero for no items.
func Total(items []LineItem) int {
	sum := 0
	for _, it := range items {
		sum += it.Price
	}
	return sum
}

// Pending is the in-progress test selection that has not been committed.
type Pending struct {
	Test      string        `json:"test"`
	Price     *int          `json:"price"`
	Variant   string        `json:"variant"`
	Options   []PriceOption `json:"options"`
	ValidTest bool          `json:"valid_test"`
}
