package report

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/platform/handoff"
)

func sampleRecord() billing.PatientRecord {
	return billing.PatientRecord{
		Name:            "Asha Rao",
		Age:             "34",
		Sex:             billing.SexFemale,
		Date:            "2024-03-01",
		ReferredDoctors: []string{"Dr. Vinod JB (MS - Ayu)", "Dr. Divya Bhavikatti (MBBS, MS - OBG)"},
		SelectedTests: []billing.LineItem{
			{Name: "CBC", Price: 350, Variant: "Premium"},
			{Name: "WESTREN'S BLOT", Price: 3000},
			{Name: "CD4, CD8", Price: 2200},
		},
	}
}

func newTestRenderer(t *testing.T) (*Renderer, *handoff.MemoryStore) {
	t.Helper()
	store := handoff.NewMemoryStore()
	return NewRenderer(store, DefaultBranding()), store
}

type failingReader struct{}

func (failingReader) Get(context.Context, string) (billing.PatientRecord, error) {
	return billing.PatientRecord{}, errors.New("connection reset")
}

func TestRenderer_Open(t *testing.T) {
	r, store := newTestRenderer(t)
	ctx := context.Background()
	store.Put(ctx, "s1", sampleRecord(), time.Hour)

	doc, err := r.Open(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Total != 5550 {
		t.Errorf("expected total 5550, got %d", doc.Total)
	}
	if doc.TotalText != "₹5,550" {
		t.Errorf("expected ₹5,550, got %q", doc.TotalText)
	}
	if doc.Patient.Age != "34 years" || doc.Patient.Date != "01/03/2024" {
		t.Errorf("unexpected patient info: %+v", doc.Patient)
	}
	if len(doc.Items) != 3 || doc.Items[0].Variant != "Premium" || doc.Items[1].Name != "WESTREN'S BLOT" {
		t.Errorf("expected line items in record order, got %+v", doc.Items)
	}
	if doc.Doctors[0] != "Dr. Vinod JB (MS - Ayu)" {
		t.Errorf("expected doctors in selection order, got %v", doc.Doctors)
	}
}

func TestRenderer_Open_Missing(t *testing.T) {
	r, _ := newTestRenderer(t)
	for _, key := range []string{"", "never-finalized"} {
		if _, err := r.Open(context.Background(), key); !errors.Is(err, ErrMissingHandoff) {
			t.Errorf("Open(%q): expected ErrMissingHandoff, got %v", key, err)
		}
	}
}

func TestRenderer_Open_EmptyRecordIsMissing(t *testing.T) {
	r, store := newTestRenderer(t)
	ctx := context.Background()
	store.Put(ctx, "blank", billing.PatientRecord{}, time.Hour)

	if _, err := r.Open(ctx, "blank"); !errors.Is(err, ErrMissingHandoff) {
		t.Errorf("expected ErrMissingHandoff for an empty record, got %v", err)
	}
}

func TestRenderer_Open_ReadFailure(t *testing.T) {
	r := NewRenderer(failingReader{}, DefaultBranding())
	_, err := r.Open(context.Background(), "s1")
	if err == nil || errors.Is(err, ErrMissingHandoff) {
		t.Errorf("expected a read error distinct from ErrMissingHandoff, got %v", err)
	}
}

func TestRenderer_DocumentDoesNotAliasRecord(t *testing.T) {
	r, _ := newTestRenderer(t)
	rec := sampleRecord()
	doc, err := r.Build(rec)
	if err != nil {
		t.Fatal(err)
	}
	rec.ReferredDoctors[0] = "changed"
	if doc.Doctors[0] == "changed" {
		t.Error("document shares memory with the caller's record")
	}
}

func TestNewBranding(t *testing.T) {
	b := DefaultBranding()
	if b.Footer != "Thank you for choosing Dr. Pujar Hospital Diagnostic Laboratory" {
		t.Errorf("unexpected footer %q", b.Footer)
	}
	if b.Title != "Billing Report" || b.Signature != "Doctor's Signature" {
		t.Errorf("unexpected branding %+v", b)
	}
}

func TestWriteText(t *testing.T) {
	r, _ := newTestRenderer(t)
	doc, _ := r.Build(sampleRecord())

	var buf bytes.Buffer
	if err := WriteText(&buf, doc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Dr. Pujar Hospital",
		"Diagnostic Laboratory",
		"Billing Report",
		"Asha Rao",
		"34 years",
		"01/03/2024",
		"* Dr. Vinod JB (MS - Ayu)",
		"CBC (Premium)",
		"₹3,000",
		"Total Amount: ₹5,550",
		"Doctor's Signature",
		"Thank you for choosing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "CBC") > strings.Index(out, "WESTREN'S BLOT") {
		t.Error("expected line items in record order")
	}
}

func TestWritePDF(t *testing.T) {
	r, _ := newTestRenderer(t)
	doc, _ := r.Build(sampleRecord())

	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestWritePDF_NonLatinNameWithoutFont(t *testing.T) {
	r, _ := newTestRenderer(t)
	rec := sampleRecord()
	rec.Name = "ಆಶಾ ರಾವ್"
	doc, err := r.Build(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !NeedsUnicodeFont(doc) {
		t.Error("expected Kannada name to need a unicode font")
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		t.Fatalf("expected a PDF with substituted glyphs, got %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF header")
	}
}

func TestWritePDF_MissingFontFile(t *testing.T) {
	b := DefaultBranding()
	b.PDFFont = filepath.Join(t.TempDir(), "missing.ttf")
	doc, err := NewRenderer(nil, b).Build(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err == nil || !strings.Contains(err.Error(), "missing.ttf") {
		t.Errorf("expected font load error, got %v", err)
	}
}

func TestNeedsUnicodeFont(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Asha Rao", false},
		{"José Müller", false},
		{"Zoë “Œuvre” – €", false},
		{"ಆಶಾ", true},
		{"आशा", true},
		{"王芳", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			rec.Name = tt.name
			doc, err := NewRenderer(nil, DefaultBranding()).Build(rec)
			if err != nil {
				t.Fatal(err)
			}
			if got := NeedsUnicodeFont(doc); got != tt.want {
				t.Errorf("NeedsUnicodeFont(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestPDFAmount(t *testing.T) {
	if got := pdfAmount(100000); got != "Rs. 1,00,000" {
		t.Errorf("got %q", got)
	}
}
