package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/pujar/labbill/internal/domain/billing"
)

const (
	RupeeSign   = "₹"
	displayDate = "02/01/2006"
)

// GroupINR formats n with Indian digit grouping: the last three digits form
// one group and the rest are grouped in pairs, so 100000 becomes 1,00,000.
func GroupINR(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.Itoa(n)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if len(digits) <= 3 {
		b.WriteString(digits)
		return b.String()
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}

// FormatINR renders an amount in rupees, e.g. ₹1,00,000.
func FormatINR(n int) string {
	if n < 0 {
		return "-" + RupeeSign + GroupINR(-n)
	}
	return RupeeSign + GroupINR(n)
}

// FormatDate renders a record date as dd/mm/yyyy. Values that are not a
// calendar date are returned unchanged.
func FormatDate(s string) string {
	t, err := time.Parse(billing.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format(displayDate)
}

func FormatAge(age string) string {
	return age + " years"
}
