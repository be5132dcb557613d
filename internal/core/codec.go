package core

import (
	"errors"
	"strings"
	"time"
)

// Document field names shared with the mobile client.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldCreatedAt   = "createdAt"
	FieldDescription = "description"
	FieldName        = "name"
	FieldType        = "type"
)

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EncodeEntry returns the document fields for a new entry.
func EncodeEntry(e Entry) map[string]any {
	fields := map[string]any{
		FieldAmount:    e.Amount.Float(),
		FieldCategory:  e.Category,
		FieldDate:      e.Date,
		FieldCreatedAt: e.CreatedAt,
	}
	if e.Description != "" {
		fields[FieldDescription] = e.Description
	}
	return fields
}

// EncodeEntryUpdate returns the fields an edit overwrites. createdAt and
// description are left alone.
func EncodeEntryUpdate(e Entry) map[string]any {
	return map[string]any{
		FieldAmount:   e.Amount.Float(),
		FieldCategory: e.Category,
		FieldDate:     e.Date,
	}
}

// DecodeEntry reads an entry document. It never fails outright: a missing or
// non-numeric amount decodes as zero and an unreadable date as the zero time,
// and the returned error (ErrUnparseableAmount, ErrInvalidDate or both) says
// which fallback was taken.
func DecodeEntry(kind EntryKind, id string, fields map[string]any) (Entry, error) {
	e := Entry{ID: id, Kind: kind}
	var errs []error

	amount, err := CoerceAmount(fields[FieldAmount])
	if err != nil {
		errs = append(errs, err)
	}
	e.Amount = amount

	e.Category = stringField(fields, FieldCategory)
	e.Description = stringField(fields, FieldDescription)

	if raw, ok := fields[FieldDate]; ok && raw != nil {
		d, err := CoerceTime(raw)
		if err != nil {
			errs = append(errs, err)
		}
		e.Date = d
	}
	if raw, ok := fields[FieldCreatedAt]; ok && raw != nil {
		if d, err := CoerceTime(raw); err == nil {
			e.CreatedAt = d
		}
	}

	return e, errors.Join(errs...)
}

// EncodeCategory returns the document fields for a category. createdAt is an
// ISO string, unlike entry timestamps.
func EncodeCategory(c Category) map[string]any {
	return map[string]any{
		FieldName:      c.Name,
		FieldType:      string(c.Type),
		FieldCreatedAt: c.CreatedAt.UTC().Format(isoMillis),
	}
}

// DecodeCategory reads a category document. Unknown types are kept verbatim so
// the index can leave them out of both lists.
func DecodeCategory(id string, fields map[string]any) Category {
	c := Category{
		ID:   id,
		Name: stringField(fields, FieldName),
		Type: CategoryType(stringField(fields, FieldType)),
	}
	if raw, ok := fields[FieldCreatedAt]; ok && raw != nil {
		if d, err := CoerceTime(raw); err == nil {
			c.CreatedAt = d
		}
	}
	return c
}

// CoerceTime accepts time.Time, the string layouts clients have written, and
// Unix milliseconds.
func CoerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, ErrInvalidDate
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		return time.Time{}, ErrInvalidDate
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	default:
		return time.Time{}, ErrInvalidDate
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
