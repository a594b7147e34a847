// Package roster reads and writes student rosters as xlsx spreadsheets.
package roster

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/student"
)

const (
	SheetName = "Students"

	defaultAcademicStatus = "Active"
)

// Columns is the header row written on export; import matches headers ignoring case, spaces & underscores.
var Columns = []string{
	"StudentID", "Given Name", "Family Name", "Sex", "DOB", "Grade", "Major", "Comments",
	"EnrollmentDate", "Location", "PhotoURL", "AcademicStatus", "School",
}

var dateLayouts = []string{core.DateLayout, "1/2/2006", "2006/01/02", time.RFC3339}

// Row is a parsed spreadsheet row. Line is 1-based, as displayed by spreadsheet apps.
type Row struct {
	Line  int
	Input student.Input
	Err   error
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// normalizeName trims s and collapses inner whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	// raw date cells hold a serial number of days
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return core.Date{}, err
		}
		return core.DateOf(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, errors.Errorf("invalid date %q, use YYYY-MM-DD", s)
}

func optional(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}

// Import reads the first sheet of an xlsx roster. A missing or unreadable sheet is an error;
// invalid rows are reported through Row.Err.
func Import(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheet")
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(records) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[normalizeHeader(h)] = i
	}
	for _, required := range []string{"studentid", "givenname", "familyname"} {
		if _, ok := header[required]; !ok {
			return nil, errors.Errorf("missing column %q", required)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		get := func(col string) string {
			idx, ok := header[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		in, err := parseRow(get)
		rows = append(rows, Row{Line: i + 2, Input: in, Err: err})
	}
	return rows, nil
}

func parseRow(get func(col string) string) (student.Input, error) {
	in := student.Input{
		StudentID:      get("studentid"),
		GivenName:      normalizeName(get("givenname")),
		FamilyName:     normalizeName(get("familyname")),
		Sex:            strings.ToUpper(get("sex")),
		Grade:          optional(get("grade")),
		Major:          optional(get("major")),
		Comments:       optional(get("comments")),
		Location:       optional(get("location")),
		PhotoURL:       optional(get("photourl")),
		AcademicStatus: optional(get("academicstatus")),
	}
	switch {
	case in.StudentID == "":
		return in, errors.New("StudentID is missing")
	case in.GivenName == "":
		return in, errors.New("'Given Name' is missing")
	case in.FamilyName == "":
		return in, errors.New("'Family Name' is missing")
	}

	var err error
	if in.DOB, err = parseDate(get("dob")); err != nil {
		return in, errors.Wrap(err, "DOB")
	}
	if in.EnrollmentDate, err = parseDate(get("enrollmentdate")); err != nil {
		return in, errors.Wrap(err, "EnrollmentDate")
	}
	if !in.AcademicStatus.Valid {
		in.AcademicStatus = null.StringFrom(defaultAcademicStatus)
	}
	return in, nil
}

func nullStr(s null.String) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// Export writes the students as an xlsx roster that Import can read back.
func Export(w io.Writer, students []student.Student) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, 0, len(Columns))
	for _, c := range Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, s := range students {
		var schoolName string
		if s.School != nil {
			schoolName = s.School.String()
		}
		row := []interface{}{
			s.StudentID, s.GivenName, s.FamilyName, s.Sex, s.DOB.String(),
			nullStr(s.Grade), nullStr(s.Major), nullStr(s.Comments), s.EnrollmentDate.String(),
			nullStr(s.Location), nullStr(s.PhotoURL), nullStr(s.AcademicStatus), schoolName,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrap(err, fmt.Sprintf("writing row %d", i+2))
		}
	}
	return errors.Wrap(f.Write(w), "writing spreadsheet")
}
