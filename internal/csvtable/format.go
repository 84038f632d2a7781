package csvtable

import (
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
)

var bareNumber = regexp.MustCompile(`^\d*\.?\d+$`)

// FormatCell renders one cell. Rules are checked in order and the first match
// wins: input_similarities element counts, percentage-formatted similarity
// scores, plain numeric grid values, relation badges, long-text truncation,
// then the escaped text unchanged. Numeric and truncation rules apply to data
// rows only (row > 0); the byte-order mark is stripped from cell (0,0).
func FormatCell(value string, col, row int, headers []string) template.HTML {
	clean := value
	if col == 0 && row == 0 {
		clean = strings.TrimPrefix(clean, "\ufeff")
	}

	header := ""
	if col < len(headers) {
		header = strings.TrimSpace(headers[col])
	}

	if row > 0 && strings.EqualFold(header, "input_similarities") {
		if n, err := countListLiteral(clean); err == nil {
			return template.HTML(fmt.Sprintf(`<span class="text-sm font-medium text-gray-700">%d matches</span>`, n))
		}
		return template.HTML(fmt.Sprintf(`<span class="text-xs text-red-500" title="Error parsing: %s">[Parse Error]</span>`,
			template.HTMLEscapeString(clean)))
	}

	if row > 0 && bareNumber.MatchString(clean) {
		if num, err := strconv.ParseFloat(clean, 64); err == nil && num >= 0 && num <= 1.01 {
			// top_similarity and friends render as a percentage; other numeric
			// columns (matrix grids where the header is a document name) keep
			// the raw fraction at two decimals.
			if strings.Contains(strings.ToLower(header), "similarity") {
				return template.HTML(fmt.Sprintf(`<span class="%s">%.1f%%</span>`, bandClass(num), num*100))
			}
			if col > 0 {
				return template.HTML(fmt.Sprintf(`<span class="%s">%.2f</span>`, bandClass(num), num))
			}
		}
	}

	switch strings.ToLower(clean) {
	case "duplicate", "duplicate/near-duplicate":
		return badge("bg-red-100 text-red-800", "ซ้ำซ้อน")
	case "similar":
		return badge("bg-orange-100 text-orange-800", "คล้ายคลึง")
	case "different":
		return badge("bg-green-100 text-green-800", "แตกต่าง")
	}

	if row > 0 {
		if runes := []rune(clean); len(runes) > 100 {
			return template.HTML(fmt.Sprintf(`<span title="%s">%s...</span>`,
				template.HTMLEscapeString(clean), template.HTMLEscapeString(string(runes[:100]))))
		}
	}

	return template.HTML(template.HTMLEscapeString(clean))
}

// bandClass maps a similarity fraction to its display band.
func bandClass(v float64) string {
	switch {
	case v >= 0.8:
		return "text-red-600 font-bold"
	case v >= 0.6:
		return "text-orange-600 font-medium"
	case v >= 0.3:
		return "text-yellow-600"
	case v > 0:
		return "text-blue-600"
	}
	return "text-gray-600"
}

func badge(classes, label string) template.HTML {
	return template.HTML(fmt.Sprintf(`<span class="inline-flex items-center px-2 py-0.5 rounded-full text-xs font-medium %s">%s</span>`, classes, label))
}

// countListLiteral parses a list-like literal as dumped by Python (single
// quotes, None tokens) and returns the element count. The literal may be
// wrapped in one layer of outer quotes from CSV quoting.
func countListLiteral(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			s = s[1 : len(s)-1]
		}
	}
	s = strings.ReplaceAll(s, "'", `"`)
	s = strings.ReplaceAll(s, "None", "null")

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return 0, err
	}
	return len(items), nil
}
