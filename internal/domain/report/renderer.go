// Package report turns a finalized billing record into a printable document.
// It reads the record from the handoff channel, never writes back, and has
// no business logic beyond summation and formatting.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/platform/handoff"
)

// ErrMissingHandoff means there is no finalized record to render. Callers
// send the user back to the builder instead of showing an empty report.
var ErrMissingHandoff = errors.New("no finalized billing record available")

// SnapshotReader is the read side of the handoff channel.
type SnapshotReader interface {
	Get(ctx context.Context, key string) (billing.PatientRecord, error)
}

// Branding holds the fixed texts printed on every report.
type Branding struct {
	Hospital   string `json:"hospital"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Signature  string `json:"signature"`
	Footer     string `json:"footer"`
	// PDFFont is an optional TrueType file embedded in PDFs so names outside
	// cp1252 print.
	PDFFont    string `json:"-"`
}

func DefaultBranding() Branding {
	return NewBranding("Dr. Pujar Hospital", "Diagnostic Laboratory")
}

// NewBranding derives the report texts from the hospital and department
// names.
func NewBranding(hospital, department string) Branding {
	return Branding{
		Hospital:   hospital,
		Department: department,
		Title:      "Billing Report",
		Signature:  "Doctor's Signature",
		Footer:     fmt.Sprintf("Thank you for choosing %s %s", hospital, department),
	}
}

type Renderer struct {
	store    SnapshotReader
	branding Branding
}

func NewRenderer(store SnapshotReader, branding Branding) *Renderer {
	return &Renderer{store: store, branding: branding}
}

// Open reads the snapshot stored under key and builds its document.
func (r *Renderer) Open(ctx context.Context, key string) (*Document, error) {
	if key == "" {
		return nil, ErrMissingHandoff
	}
	rec, err := r.store.Get(ctx, key)
	if errors.Is(err, handoff.ErrNotFound) {
		return nil, ErrMissingHandoff
	}
	if err != nil {
		return nil, fmt.Errorf("read handoff slot: %w", err)
	}
	return r.Build(rec)
}

// Build lays out a record that is already in hand. A record with no patient
// and no tests is treated as absent.
func (r *Renderer) Build(rec billing.PatientRecord) (*Document, error) {
	if rec.Name == "" && len(rec.SelectedTests) == 0 {
		return nil, ErrMissingHandoff
	}
	return newDocument(r.branding, rec), nil
}
