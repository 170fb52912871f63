package gtfs

import (
	"strings"
)

const bom = "\ufeff"

// Record maps a header name to the field value of one data row
type Record map[string]string

// ParseCSV splits feed text into records keyed by the header row.
//
// The split is purely positional on commas: quote characters are removed from
// header names and values but a comma inside a quoted field still starts a
// new field. Rows with
// fewer fields than the header get "" for the missing trailing columns, extra
// fields are dropped. Blank lines are skipped.
func ParseCSV(text string) []Record {
	text = strings.TrimSpace(strings.TrimPrefix(text, bom))
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = cleanField(h)
	}

	out := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		rec := make(Record, len(headers))
		for i, h := range headers {
			v := ""
			if i < len(values) {
				v = cleanField(values[i])
			}
			rec[h] = v
		}
		out = append(out, rec)
	}
	return out
}

// hasColumn reports whether the header row of text contains col.
func hasColumn(text, col string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(text, bom)), "\n")
	for _, h := range strings.Split(first, ",") {
		if cleanField(h) == col {
			return true
		}
	}
	return false
}

func cleanField(f string) string {
	return strings.ReplaceAll(strings.TrimSpace(f), `"`, "")
}
