package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const textWidth = 64

// WriteText renders the document as plain text suitable for a terminal or
// a line printer.
func WriteText(w io.Writer, d *Document) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("-", textWidth)

	center(bw, d.Branding.Hospital)
	center(bw, d.Branding.Department)
	center(bw, d.Branding.Title)
	fmt.Fprintln(bw, rule)

	fmt.Fprintln(bw, "Patient Information")
	tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Name\t%s\n", d.Patient.Name)
	fmt.Fprintf(tw, "  Age\t%s\n", d.Patient.Age)
	fmt.Fprintf(tw, "  Sex\t%s\n", d.Patient.Sex)
	fmt.Fprintf(tw, "  Date\t%s\n", d.Patient.Date)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(bw, rule)

	fmt.Fprintln(bw, "Referring Doctor(s)")
	for _, doc := range d.Doctors {
		fmt.Fprintf(bw, "  * %s\n", doc)
	}
	fmt.Fprintln(bw, rule)

	fmt.Fprintln(bw, "Diagnostic Tests")
	tw = tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
	for _, it := range d.Items {
		name := it.Name
		if it.Variant != "" {
			name += " (" + it.Variant + ")"
		}
		fmt.Fprintf(tw, "  %s\t%12s\n", name, it.AmountText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(bw, rule)

	total := "Total Amount: " + d.TotalText
	fmt.Fprintf(bw, "%*s\n", textWidth, total)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "%*s\n", textWidth, "____________________")
	fmt.Fprintf(bw, "%*s\n", textWidth, d.Branding.Signature)
	fmt.Fprintf(bw, "%*s\n", textWidth, d.Branding.Hospital)
	fmt.Fprintln(bw, rule)
	center(bw, d.Branding.Footer)

	return bw.Flush()
}

func center(w io.Writer, s string) {
	pad := (textWidth - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), s)
}
