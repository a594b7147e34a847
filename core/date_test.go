package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Date
		wantErr error
	}{
		{name: "empty", s: "", wantErr: ErrInvalidDate},
		{name: "wrong layout", s: "12/05/2005", wantErr: ErrInvalidDate},
		{name: "out of range", s: "2005-13-01", wantErr: ErrInvalidDate},
		{name: "valid", s: "2005-05-12", want: NewDate(2005, time.May, 12)},
		{name: "surrounding spaces", s: " 2005-05-12 ", want: NewDate(2005, time.May, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.s)
			if err != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		DOB Date `json:"dob"`
	}

	tests := []struct {
		name     string
		data     string
		want     string
		wantJSON string
		wantErr  bool
	}{
		{name: "null", data: `{"dob": null}`, wantJSON: `{"dob":null}`},
		{name: "missing", data: `{}`, wantJSON: `{"dob":null}`},
		{name: "blank", data: `{"dob": " "}`, wantJSON: `{"dob":null}`},
		{name: "date", data: `{"dob": "2005-05-12"}`, want: "2005-05-12", wantJSON: `{"dob":"2005-05-12"}`},
		{name: "datetime", data: `{"dob": "2005-05-12T10:00:00Z"}`, wantErr: true},
		{name: "number", data: `{"dob": 20050512}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := json.Unmarshal([]byte(tt.data), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("json.Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := p.DOB.String(); got != tt.want {
				t.Errorf("Date.String() = %q, want %q", got, tt.want)
			}
			data, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("json.Marshal() failed: %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("json.Marshal() = %s, want %s", data, tt.wantJSON)
			}
		})
	}
}

func TestDate_UnmarshalJSON_typeError(t *testing.T) {
	type payload struct {
		DOB Date `json:"dob"`
	}

	for _, data := range []string{`{"dob": "12/05/2005"}`, `{"dob": 20050512}`} {
		var p payload
		err := json.Unmarshal([]byte(data), &p)
		ute, ok := err.(*json.UnmarshalTypeError)
		if !ok {
			t.Fatalf("json.Unmarshal(%s) error = %v, want *json.UnmarshalTypeError", data, err)
		}
		if ute.Field != "dob" || ute.Type != DateType {
			t.Errorf("json.Unmarshal(%s) error field = %q type = %v, want dob %v", data, ute.Field, ute.Type, DateType)
		}
	}
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2005, time.May, 12)

	tests := []struct {
		name    string
		value   interface{}
		want    Date
		wantErr bool
	}{
		{name: "nil", value: nil},
		{name: "time", value: time.Date(2005, time.May, 12, 23, 59, 0, 0, time.UTC), want: want},
		{name: "bytes", value: []byte("2005-05-12"), want: want},
		{name: "timestamp string", value: "2005-05-12T00:00:00Z", want: want},
		{name: "garbage", value: "lol", wantErr: true},
		{name: "unsupported type", value: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.Scan(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Date.Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !d.Equal(tt.want.Time) {
				t.Errorf("Date.Scan() = %v, want %v", d, tt.want)
			}
		})
	}

	v, err := want.Value()
	if err != nil || v != "2005-05-12" {
		t.Errorf("Date.Value() = %v, %v; want 2005-05-12", v, err)
	}
	if v, _ = (Date{}).Value(); v != nil {
		t.Errorf("Date{}.Value() = %v, want nil", v)
	}
}
