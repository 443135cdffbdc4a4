package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ad2m/missions/internal/actor"
	enc "github.com/ad2m/missions/internal/encoding"
)

// Entry is one person read from a roster export.
type Entry struct {
	Row            int
	Matricule      string
	Name           string
	Email          string
	Roles          []string
	ChiefMatricule string
	Active         bool
}

// Sheet is the parsed content of a roster export.
type Sheet struct {
	Charset enc.Charset
	Entries []Entry
}

// Parse reads a semicolon-separated roster. The header row may be preceded by
// title lines; it is the first row carrying every required column.
func Parse(r io.Reader) (*Sheet, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx, ok := detectHeader(rows)
	if !ok {
		return nil, fmt.Errorf("no roster header found: expected columns matricule, nom and role")
	}

	entries, err := parseRows(cols, rows[headerIdx+1:], headerIdx+1)
	if err != nil {
		return nil, err
	}

	return &Sheet{Charset: charset, Entries: entries}, nil
}

// colIndex maps each field to its position in the row.
type colIndex map[field]int

func detectHeader(rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			label := actor.Fold(cell)

			for _, c := range columns {
				if _, taken := cols[c.field]; !taken && slices.Contains(c.labels, label) {
					cols[c.field] = i
				}
			}
		}

		if hasRequired(cols) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func hasRequired(cols colIndex) bool {
	for _, c := range columns {
		if _, ok := cols[c.field]; c.required && !ok {
			return false
		}
	}

	return true
}

// parseRows reads data rows. headerRowNum is the 0-based index of the first data row in the file.
func parseRows(cols colIndex, rows [][]string, headerRowNum int) ([]Entry, error) {
	var entries []Entry

	seen := make(map[string]int)

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		if blank(row) {
			continue
		}

		e := Entry{
			Row:            rowNum,
			Matricule:      cols.value(row, fieldMatricule),
			Name:           cols.value(row, fieldName),
			Email:          cols.value(row, fieldEmail),
			Roles:          splitRoles(cols.value(row, fieldRole)),
			ChiefMatricule: cols.value(row, fieldChief),
			Active:         parseActive(cols.value(row, fieldActive)),
		}

		switch {
		case e.Matricule == "":
			return nil, fmt.Errorf("row %d: missing matricule", rowNum)
		case e.Name == "":
			return nil, fmt.Errorf("row %d: missing name for %s", rowNum, e.Matricule)
		case len(e.Roles) == 0:
			return nil, fmt.Errorf("row %d: missing role for %s", rowNum, e.Matricule)
		}

		if first, dup := seen[e.Matricule]; dup {
			return nil, fmt.Errorf("row %d: matricule %s already listed on row %d", rowNum, e.Matricule, first)
		}

		seen[e.Matricule] = rowNum
		entries = append(entries, e)
	}

	return entries, nil
}

func (c colIndex) value(row []string, f field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// splitRoles accepts several roles in one cell separated by commas, slashes, pipes or plus signs.
func splitRoles(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == '/' || r == '|' || r == '+'
	})

	roles := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}

	return roles
}

// parseActive treats a missing column or an unrecognized value as active.
func parseActive(cell string) bool {
	switch actor.Fold(cell) {
	case "non", "no", "0", "false", "inactif", "inactive":
		return false
	default:
		return true
	}
}
