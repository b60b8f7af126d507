package core

// normalize.go cleans one untrusted row and checks it against its table's
// required-field rule.
//
// Normalization is a total function: it never returns a Go error and never
// panics on caller data. Every problem becomes a FieldError tied to the
// 1-based row index, and a row is valid iff its error list is empty.
//
// Field handling, by case-insensitive field name:
//   - contains "date": resolved by the DateResolver; failures null the field
//   - contains "count", "cases" or "volume": coerced to a number; failures
//     keep the original value so the caller can see what was sent
//   - anything else: copied through
//
// The date rule wins when a name matches both ("updateCount" is a date field).

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field error messages.
const (
	MsgInvalidDate    = "invalid date"
	MsgInvalidNumeric = "invalid numeric value"
	MsgRequired       = "is required"
)

// reservedFields are spreadsheet-parser bookkeeping keys. They are dropped
// from cleaned records and never validated.
var reservedFields = map[string]struct{}{
	"__rowNum__": {},
	"_id":        {},
	"_rowIndex":  {},
	"_errors":    {},
}

// IsReservedField reports whether name is an internal key that normalization skips.
func IsReservedField(name string) bool {
	_, ok := reservedFields[name]
	return ok
}

var numericFieldMarkers = []string{"count", "cases", "volume"}

type fieldKind int

const (
	kindPlain fieldKind = iota
	kindDate
	kindNumeric
)

func classifyField(name string) fieldKind {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "date") {
		return kindDate
	}
	for _, marker := range numericFieldMarkers {
		if strings.Contains(lower, marker) {
			return kindNumeric
		}
	}
	return kindPlain
}

// Normalizer cleans rows for one import. All rows of an import share the
// same importedAt timestamp and source tag.
type Normalizer struct {
	resolver   DateResolver
	importedAt time.Time
	source     string
}

// NewNormalizer creates a Normalizer stamping rows with importedAt.
func NewNormalizer(resolver DateResolver, importedAt time.Time) *Normalizer {
	return &Normalizer{
		resolver:   resolver,
		importedAt: importedAt.UTC(),
		source:     Source,
	}
}

// Normalize cleans raw (the row at 1-based rowIndex) for table def.
// It returns the cleaned record and every field error found; the record is
// returned even when errors are present so callers can report on it.
func (n *Normalizer) Normalize(raw RawRecord, rowIndex int, def TableDefinition) (CleanedRecord, []FieldError) {
	cleaned := make(CleanedRecord, len(raw)+3)
	var errs []FieldError

	for field, value := range raw {
		if IsReservedField(field) {
			continue
		}

		value = cleanValue(value)

		switch classifyField(field) {
		case kindDate:
			if value == nil {
				cleaned[field] = nil
				continue
			}
			t, err := n.resolver.Resolve(value)
			if err != nil {
				errs = append(errs, FieldError{
					RowIndex:      rowIndex,
					Field:         field,
					Message:       MsgInvalidDate,
					OriginalValue: value,
				})
				cleaned[field] = nil
				continue
			}
			cleaned[field] = FormatDate(t)

		case kindNumeric:
			if value == nil {
				cleaned[field] = nil
				continue
			}
			f, ok := ToNumeric(value)
			if !ok {
				errs = append(errs, FieldError{
					RowIndex:      rowIndex,
					Field:         field,
					Message:       MsgInvalidNumeric,
					OriginalValue: value,
				})
				cleaned[field] = value
				continue
			}
			cleaned[field] = f

		default:
			cleaned[field] = value
		}
	}

	cleaned[FieldImportedAt] = n.importedAt.Format(time.RFC3339)
	cleaned[FieldSource] = n.source
	cleaned[FieldRowIndex] = rowIndex

	if def.RequiredField != "" && cleaned[def.RequiredField] == nil {
		errs = append(errs, FieldError{
			RowIndex:      rowIndex,
			Field:         def.RequiredField,
			Message:       fmt.Sprintf("%s %s", def.RequiredField, MsgRequired),
			OriginalValue: raw[def.RequiredField],
		})
	}

	sortFieldErrors(errs)
	return cleaned, errs
}

// cleanValue trims strings, mapping blank strings to nil. Other scalars pass
// through unchanged.
func cleanValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = CleanString(s)
	if s == "" {
		return nil
	}
	return s
}

// sortFieldErrors orders errors by field name so output does not depend on
// map iteration order.
func sortFieldErrors(errs []FieldError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})
}
