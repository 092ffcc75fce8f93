// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/danielhkuo/staff-directory/models"
)

// PreviewLimit caps the rows shown before an import is confirmed.
const PreviewLimit = 200

var (
	DepartmentHeader = []string{"department_name", "extension", "building", "room_number"}
	StaffHeader      = []string{"name", "title", "extension", "room_number", "department_name"}
)

var (
	ErrNoRows      = errors.New("no valid data found in the CSV file")
	ErrUnknownType = errors.New("unknown import type")
	ErrEmptyFile   = errors.New("CSV file is empty")
)

const utf8BOM = "\ufeff"

// HeaderError reports a header row that does not match the import type.
type HeaderError struct {
	Expected []string
	Got      []string
}

func (e *HeaderError) Error() string {
	return "invalid CSV format. Expected headers: " + strings.Join(e.Expected, ", ")
}

// HeaderFor returns the required header row for an import type.
func HeaderFor(importType string) ([]string, error) {
	switch importType {
	case models.ImportDepartments:
		return DepartmentHeader, nil
	case models.ImportStaff:
		return StaffHeader, nil
	}
	return nil, ErrUnknownType
}

type record struct {
	fields []string
	row    int
}

// readRecords checks the header and returns the data records that have
// exactly as many fields as the header, plus the total number of data
// records read. Row numbers count the header as row 1.
func readRecords(r io.Reader, header []string) ([]record, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	got, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrEmptyFile
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(got) > 0 {
		got[0] = strings.TrimPrefix(got[0], utf8BOM)
	}
	if !slices.Equal(got, header) {
		return nil, 0, &HeaderError{Expected: header, Got: got}
	}

	var records []record
	total := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV row %d: %w", total+2, err)
		}
		total++
		if len(rec) != len(header) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		records = append(records, record{fields: rec, row: total + 1})
	}
	return records, total, nil
}

// ParseDepartments reads a department import file.
func ParseDepartments(r io.Reader) ([]models.DepartmentRow, int, error) {
	records, total, err := readRecords(r, DepartmentHeader)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]models.DepartmentRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.DepartmentRow{
			RowNumber:  rec.row,
			Name:       rec.fields[0],
			Extension:  rec.fields[1],
			Building:   rec.fields[2],
			RoomNumber: rec.fields[3],
		})
	}
	if len(rows) == 0 {
		return nil, total, ErrNoRows
	}
	return rows, total, nil
}

// ParseStaff reads a staff import file.
func ParseStaff(r io.Reader) ([]models.StaffRow, int, error) {
	records, total, err := readRecords(r, StaffHeader)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]models.StaffRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.StaffRow{
			RowNumber:      rec.row,
			Name:           rec.fields[0],
			Title:          rec.fields[1],
			Extension:      rec.fields[2],
			RoomNumber:     rec.fields[3],
			DepartmentName: rec.fields[4],
		})
	}
	if len(rows) == 0 {
		return nil, total, ErrNoRows
	}
	return rows, total, nil
}

// Preview returns at most PreviewLimit rows.
func Preview[T any](rows []T) []T {
	if len(rows) > PreviewLimit {
		return rows[:PreviewLimit]
	}
	return rows
}
