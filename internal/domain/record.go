package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
)

// Value is one spreadsheet cell: a string, a number, or nothing.
type Value struct {
	kind Kind
	str  string
	num  float64
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) Float() float64 { return v.num }

// Text normalizes the cell to a string; absent cells read as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Value{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("cell value %s: %w", b, err)
		}
		*v = Number(n)
		return nil
	}
}

// Record is one transformed sheet row keyed by header name. The schema is
// whatever the sheet header says; only a handful of fields are read here.
type Record map[string]Value

// Field names read by the filter engine and the marker view.
const (
	FieldAddress   = "Address"
	FieldEventDate = "eventDate"
	FieldArea      = "Area"
	FieldLanguage  = "Language"
	FieldDay       = "Day"
	FieldOrganizer = "Organizer"
	FieldAge       = "Age"
	FieldTime      = "Time"
	FieldPaused    = "Paused"
	FieldLat       = "lat"
	FieldLng       = "lng"
)

// Str returns the field as text, "" when missing.
func (r Record) Str(field string) string {
	return r[field].Text()
}

// Table is the raw output of a row source: header row first, then data rows.
type Table [][]string

func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

func (t Table) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}
