// Package recordio reads company records from spreadsheets or CSV files and
// writes resolution output back out as CSV.
package recordio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

// ReadCompanies parses an .xlsx or .csv file into company queries. The first
// row is treated as a header; columns are matched by name (id, name,
// employees), and rows with a blank name are skipped.
func ReadCompanies(path string) ([]model.CompanyQuery, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	case ".csv":
		rows, err = readCSVRows(path)
	default:
		return nil, eris.Errorf("recordio: unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("recordio: %s is empty", path)
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var companies []model.CompanyQuery
	for i, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, cols.name))
		if name == "" {
			continue
		}
		id := strings.TrimSpace(cell(row, cols.id))
		if id == "" {
			id = "row-" + strconv.Itoa(i+2)
		}
		companies = append(companies, model.CompanyQuery{
			ID:                id,
			Name:              name,
			EmployeeCountHint: strings.TrimSpace(cell(row, cols.employees)),
		})
	}
	if len(companies) == 0 {
		return nil, eris.Errorf("recordio: %s has no company rows", path)
	}
	return companies, nil
}

// WriteResults writes output records as CSV with a header row.
func WriteResults(path string, records []model.OutputRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "recordio: create output file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "employees", "website"}); err != nil {
		return eris.Wrap(err, "recordio: write header")
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.ID, rec.Name, rec.Employees, rec.Website}); err != nil {
			return eris.Wrap(err, "recordio: write record")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "recordio: flush output")
}

type columnMap struct {
	id        int
	name      int
	employees int
}

// mapColumns locates the id/name/employees columns in a header row. Only
// name is required.
func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{id: -1, name: -1, employees: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "id", "companyid":
			cols.id = i
		case "name", "companyname", "company":
			cols.name = i
		case "employees", "employeecount", "headcount":
			cols.employees = i
		}
	}
	if cols.name == -1 {
		return cols, eris.Errorf("recordio: no name column in header %v", header)
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "recordio: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("recordio: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "recordio: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "recordio: read csv")
	}
	return rows, nil
}

