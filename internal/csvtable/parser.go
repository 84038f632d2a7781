// Package csvtable renders backend CSV exports as HTML tables.
//
// The parser is deliberately lenient: the analysis backend's CSV exports are
// close to RFC 4180 but every field is trimmed, and rows whose width does not
// match the header are dropped rather than failing the whole table.
package csvtable

import (
	"fmt"
	"html/template"
	"log"
	"strings"
)

// ParseLine splits a single CSV line on commas outside double-quoted regions.
// Two consecutive double quotes inside a quoted region collapse to a literal
// quote. A trailing carriage return is stripped (CRLF input). Every field is
// trimmed of surrounding whitespace, including inside quotes - a known
// deviation from RFC 4180 kept for compatibility with the existing exports.
// The result always holds at least one field, even for an empty line.
func ParseLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")

	result := []string{}
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	result = append(result, strings.TrimSpace(current.String()))
	return result
}

const (
	headerCellClass = "px-4 py-3 border border-gray-200 text-sm font-medium text-gray-600 text-left sticky top-0 z-10 whitespace-nowrap min-w-[200px]"
	dataCellClass   = "px-4 py-2 border border-gray-200 text-sm text-gray-800"
	headerRowClass  = "bg-gradient-to-r from-gray-50 to-blue-50"
)

// ParseTable converts raw CSV text into a scrollable HTML table. The first
// non-blank line is the header row and fixes the expected column count; data
// rows with a different width are logged and skipped. Empty input yields a
// "no data" placeholder instead of an empty table.
func ParseTable(csvText string) template.HTML {
	if strings.TrimSpace(csvText) == "" {
		return `<p class="text-gray-600">ไม่มีข้อมูลในไฟล์ CSV</p>`
	}

	lines := strings.Split(strings.TrimSpace(csvText), "\n")

	var b strings.Builder
	b.WriteString(`<div class="overflow-x-auto relative border border-gray-200 rounded-lg" style="max-height: 500px; overflow-y: auto;">`)
	b.WriteString(`<table class="min-w-full bg-white divide-y divide-gray-200">`)

	headers := ParseLine(strings.TrimSpace(lines[0]))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		cells := ParseLine(trimmed)
		if i > 0 && len(cells) != len(headers) {
			log.Printf("csvtable: skipping malformed line %d: expected %d cells, got %d", i+1, len(headers), len(cells))
			continue
		}

		tag := "td"
		rowClass := "bg-gray-50 hover:bg-gray-100"
		if i == 0 {
			tag = "th"
			rowClass = headerRowClass
		} else if i%2 == 0 {
			rowClass = "bg-white"
		}

		b.WriteString(`<tr class="` + rowClass + `">`)
		for col, cell := range cells {
			header := ""
			if col < len(headers) {
				header = strings.TrimSpace(headers[col])
			}

			cellClass := dataCellClass
			if i == 0 {
				cellClass = headerCellClass
			}

			// Lists align to the top, numeric grid cells center.
			align := " align-middle"
			switch {
			case strings.EqualFold(header, "input_similarities") || strings.EqualFold(header, "genre_top3_summary"):
				align = " align-top"
			case col > 0 && i > 0:
				align = " align-middle text-center"
			}

			fmt.Fprintf(&b, `<%s class="%s%s">%s</%s>`, tag, cellClass, align, FormatCell(cell, col, i, headers), tag)
		}
		b.WriteString("</tr>")
	}

	b.WriteString("</table></div>")
	return template.HTML(b.String())
}
