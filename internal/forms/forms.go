// Package forms decodes textual key/value input into typed, validated
// per-entity form objects.
package forms

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"safework/internal/model"
	"safework/internal/safework"
)

var decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(decodeDate, model.Date{})
	d.RegisterCustomTypeFunc(decodeDecimal, decimal.Decimal{})
	d.RegisterCustomTypeFunc(decodeIDs, []int64{})
	return d
}

// FieldErrors maps form field names to what is wrong with them.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range slices.Sorted(maps.Keys(e)) {
		parts = append(parts, field+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return safework.ErrInvalidInput
}

// add records msg for field unless the field already has an error.
func (e FieldErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Decode fills dst, a pointer to a form struct, from values. Keys that name
// no field of dst and values that do not parse are reported as FieldErrors.
func Decode(dst any, values url.Values) error {
	errs := FieldErrors{}
	known := fieldNames(dst)
	for key := range values {
		if !known[key] {
			errs.add(key, "unknown field")
		}
	}

	if err := decoder.Decode(dst, values); err != nil {
		var decodeErrs form.DecodeErrors
		if !errors.As(err, &decodeErrs) {
			return fmt.Errorf("decoding form: %w", err)
		}
		for field, ferr := range decodeErrs {
			errs.add(field, ferr.Error())
		}
	}
	return errs.orNil()
}

// ValuesFromArgs parses "key=value" arguments. Repeating a key appends a
// value.
func ValuesFromArgs(args []string) (url.Values, error) {
	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: argument %q is not key=value", safework.ErrInvalidInput, arg)
		}
		values.Add(key, value)
	}
	return values, nil
}

// ParseDate accepts an ISO calendar day (2006-01-02) or an Excel serial day
// number as exported by spreadsheets.
func ParseDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 20000 || serial > 80000 {
			return model.Date{}, fmt.Errorf("%q is outside the supported spreadsheet date range", s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return model.Date{}, fmt.Errorf("converting spreadsheet date %q: %w", s, err)
		}
		return model.DateOf(t), nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return model.Date{}, fmt.Errorf("%q is not a date in YYYY-MM-DD form", s)
	}
	return model.DateOf(t), nil
}

func decodeDate(vals []string) (any, error) {
	return ParseDate(vals[0])
}

func decodeDecimal(vals []string) (any, error) {
	s := strings.TrimSpace(vals[0])
	if s == "" {
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return d, nil
}

// decodeIDs accepts repeated values, comma separated lists, or both.
func decodeIDs(vals []string) (any, error) {
	var ids []int64
	for _, v := range vals {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%q is not a record id", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// fieldNames returns the form tag names of the struct dst points to.
func fieldNames(dst any) map[string]bool {
	names := map[string]bool{}
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return names
	}
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		switch name {
		case "-":
		case "":
			names[f.Name] = true
		default:
			names[name] = true
		}
	}
	return names
}
