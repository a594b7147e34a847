package roster

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
)

func newSpreadsheet(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err = f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() failed: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	return buf
}

func TestExportImport(t *testing.T) {
	sch := school.School{ID: 1, Name: "Lycee Wima", Campus: null.StringFrom("Gombe")}
	students := []student.Student{
		{
			StudentID: "S-001", GivenName: "Amy", FamilyName: "Zed", Sex: student.SexFemale,
			DOB: core.NewDate(2005, time.May, 12), Major: null.StringFrom("Sciences"),
			EnrollmentDate: core.NewDate(2020, time.September, 1), AcademicStatus: null.StringFrom("Graduated"),
			School: &sch,
		},
		{StudentID: "S-002", GivenName: "Bob", FamilyName: "Amy", Sex: student.SexMale, DOB: core.NewDate(2006, time.January, 2)},
	}

	buf := new(bytes.Buffer)
	if err := Export(buf, students); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	schoolCell, _ := f.GetCellValue(SheetName, "M2")
	assert.Equal(t, "Lycee Wima (Gombe)", schoolCell)
	_ = f.Close()

	rows, err := Import(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	want := []Row{
		{Line: 2, Input: student.Input{
			StudentID: "S-001", GivenName: "Amy", FamilyName: "Zed", Sex: student.SexFemale,
			DOB: core.NewDate(2005, time.May, 12), Major: null.StringFrom("Sciences"),
			EnrollmentDate: core.NewDate(2020, time.September, 1), AcademicStatus: null.StringFrom("Graduated"),
		}},
		{Line: 3, Input: student.Input{
			StudentID: "S-002", GivenName: "Bob", FamilyName: "Amy", Sex: student.SexMale,
			DOB: core.NewDate(2006, time.January, 2), AcademicStatus: null.StringFrom(defaultAcademicStatus),
		}},
	}
	assert.Equal(t, want, rows)
}

func TestImport(t *testing.T) {
	t.Run("not a spreadsheet", func(t *testing.T) {
		_, err := Import(bytes.NewBufferString("lol"))
		assert.Error(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := Import(newSpreadsheet(t, []interface{}{"StudentID", "Given Name"}))
		if assert.Error(t, err) {
			assert.Equal(t, `missing column "familyname"`, err.Error())
		}
	})

	t.Run("rows", func(t *testing.T) {
		dob := time.Date(2005, time.May, 12, 0, 0, 0, 0, time.UTC)
		buf := newSpreadsheet(t,
			[]interface{}{"student_id", "GIVEN NAME", "family-name", "sex", "dob", "enrollment date"},
			[]interface{}{"S-001", "  Amy   Lou ", "Zed", "f", dob, "9/1/2020"},
			[]interface{}{},
			[]interface{}{"", "Bob", "Amy", "M", "2006-01-02"},
			[]interface{}{"S-003", "Carl", "", "M", "2006-01-02"},
			[]interface{}{"S-004", "Dan", "Kab", "M", "lol"},
			[]interface{}{"S-005", "Eve", "Kab", "F", "2006-01-02", "soon"},
			[]interface{}{"S-006", "Fay", "Kab", "F"},
		)

		rows, err := Import(buf)
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}
		if !assert.Len(t, rows, 6) {
			return
		}

		first := rows[0]
		assert.Equal(t, 2, first.Line)
		assert.NoError(t, first.Err)
		assert.Equal(t, "Amy Lou", first.Input.GivenName)
		assert.Equal(t, student.SexFemale, first.Input.Sex)
		assert.Equal(t, "2005-05-12", first.Input.DOB.String())
		assert.Equal(t, "2020-09-01", first.Input.EnrollmentDate.String())

		wantErrs := map[int]string{
			4: "StudentID is missing",
			5: "'Family Name' is missing",
			6: `DOB: invalid date "lol", use YYYY-MM-DD`,
			7: `EnrollmentDate: invalid date "soon", use YYYY-MM-DD`,
		}
		for _, row := range rows[1:5] {
			if assert.Error(t, row.Err, "line %d", row.Line) {
				assert.Equal(t, wantErrs[row.Line], row.Err.Error())
			}
		}

		// a missing DOB is left to validation
		assert.Equal(t, 8, rows[5].Line)
		assert.NoError(t, rows[5].Err)
		assert.True(t, rows[5].Input.DOB.IsZero())
	})
}
