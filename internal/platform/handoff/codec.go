package handoff

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/pujar/labbill/internal/domain/billing"
)

// Encode serializes a record into the handoff wire format.
func Encode(rec billing.PatientRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode billing record: %w", err)
	}
	return data, nil
}

// Decode parses a handoff payload. Missing lists decode as empty, not nil.
func Decode(data []byte) (billing.PatientRecord, error) {
	var rec billing.PatientRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return billing.PatientRecord{}, fmt.Errorf("decode billing record: %w", err)
	}
	if rec.ReferredDoctors == nil {
		rec.ReferredDoctors = []string{}
	}
	if rec.SelectedTests == nil {
		rec.SelectedTests = []billing.LineItem{}
	}
	return rec, nil
}
