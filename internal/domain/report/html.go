package report

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// TemplateName is the name handlers pass to echo's Context.Render.
const TemplateName = "report"

// Page is the view model for the HTML report.
type Page struct {
	*Document
	ID      string
	BackURL string
	PDFURL  string
}

// Templates implements echo.Renderer for the report page.
type Templates struct {
	tmpl *template.Template
}

func NewTemplates() *Templates {
	return &Templates{tmpl: template.Must(template.New(TemplateName).Parse(reportHTML))}
}

func (t *Templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}

const reportHTML = `<!DOCTYPE html>
<html lang="en-IN">
<head>
<meta charset="utf-8">
<title>{{.Branding.Hospital}} - {{.Branding.Title}}</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #f8fafc; color: #0f172a; }
  .toolbar { background: #fff; border-bottom: 1px solid #e2e8f0; padding: 12px 24px; display: flex; justify-content: space-between; }
  .toolbar a, .toolbar button { font: inherit; padding: 6px 14px; border-radius: 6px; border: 1px solid #cbd5e1; background: #fff; color: inherit; text-decoration: none; cursor: pointer; }
  .toolbar button { background: #1e40af; color: #fff; border-color: #1e40af; }
  main { max-width: 56rem; margin: 0 auto; padding: 32px 16px; }
  header { text-align: center; margin-bottom: 32px; }
  header h1 { font-size: 2.25rem; color: #1e40af; margin: 0 0 8px; }
  header p { margin: 0; color: #64748b; }
  .card { background: #fff; border: 1px solid #e2e8f0; border-radius: 8px; padding: 32px; }
  h2 { font-size: 1.25rem; margin: 0 0 16px; }
  .patient { display: grid; grid-template-columns: repeat(4, 1fr); gap: 16px; background: #f1f5f9; padding: 16px; border-radius: 8px; }
  .label { font-size: .85rem; color: #64748b; margin: 0; }
  .value { font-weight: 600; margin: 4px 0 0; }
  hr { border: 0; border-top: 1px solid #e2e8f0; margin: 24px 0; }
  ul { padding-left: 20px; }
  .item { display: flex; justify-content: space-between; align-items: center; border: 1px solid #e2e8f0; border-radius: 8px; padding: 16px; margin-bottom: 12px; }
  .variant { font-size: .85rem; color: #64748b; margin: 2px 0 0; }
  .amount { font-weight: 700; font-size: 1.1rem; }
  .total { display: flex; justify-content: space-between; background: #dbeafe; padding: 24px; border-radius: 8px; font-size: 1.5rem; font-weight: 700; }
  .total span:last-child { color: #1e40af; font-size: 1.8rem; }
  .signature { display: flex; justify-content: flex-end; margin-top: 48px; text-align: center; }
  .signature .line { width: 12rem; border-bottom: 1px solid #94a3b8; margin-bottom: 8px; }
  footer { margin-top: 32px; padding-top: 16px; border-top: 1px solid #e2e8f0; text-align: center; color: #64748b; font-size: .9rem; }
  @media print {
    @page { margin: 0.5in; size: A4; }
    .toolbar { display: none; }
    body { background: #fff; }
    .card { border: 0; padding: 24px; }
  }
</style>
</head>
<body>
<div class="toolbar">
  <a href="{{.BackURL}}">&larr; Back to Form</a>
  <span>
    <a href="{{.PDFURL}}">Download PDF</a>
    <button type="button" onclick="window.print()">Print Report</button>
  </span>
</div>
<main>
  <header>
    <h1>{{.Branding.Hospital}}</h1>
    <p>{{.Branding.Department}}</p>
    <p><small>{{.Branding.Title}}</small></p>
  </header>
  <div class="card">
    <h2>Patient Information</h2>
    <div class="patient">
      <div><p class="label">Name</p><p class="value">{{.Patient.Name}}</p></div>
      <div><p class="label">Age</p><p class="value">{{.Patient.Age}}</p></div>
      <div><p class="label">Sex</p><p class="value">{{.Patient.Sex}}</p></div>
      <div><p class="label">Date</p><p class="value">{{.Patient.Date}}</p></div>
    </div>
    <hr>
    <h2>Referring Doctor(s)</h2>
    <ul>
      {{- range .Doctors}}
      <li>{{.}}</li>
      {{- end}}
    </ul>
    <hr>
    <h2>Diagnostic Tests</h2>
    {{- range .Items}}
    <div class="item">
      <div>
        <p class="value">{{.Name}}</p>
        {{- if .Variant}}
        <p class="variant">({{.Variant}})</p>
        {{- end}}
      </div>
      <div class="amount">{{.AmountText}}</div>
    </div>
    {{- end}}
    <hr>
    <div class="total"><span>Total Amount:</span><span>{{.TotalText}}</span></div>
    <div class="signature">
      <div>
        <div class="line"></div>
        <p class="value">{{.Branding.Signature}}</p>
        <p class="label">{{.Branding.Hospital}}</p>
      </div>
    </div>
    <footer>{{.Branding.Footer}}</footer>
  </div>
</main>
</body>
</html>
`
