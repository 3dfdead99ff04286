package receipt

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const timestampLayout = "Jan 02, 2006, 03:04 PM"

// PadLine right-justifies right against left within width. When both do not
// fit, a single space separates them and the line overflows; amounts are
// never truncated.
func PadLine(left, right string, width int) string {
	padding := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

// WrapText greedily packs words into lines of at most width characters.
// A single word longer than width is kept whole on its own line.
func WrapText(text string, width int) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timestampLayout)
}

func rule(width int) string {
	return strings.Repeat("-", width)
}
