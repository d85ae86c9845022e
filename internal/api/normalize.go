package api

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const unknownErrorMessage = "unknown error"

// Normalize converts a DRF style error payload into a single display string.
// Precedence: detail, top-level list, non_field_errors, then a field to
// errors mapping. It never fails; unrecognised input is returned as text.
func Normalize(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return unknownErrorMessage
	}
	if !gjson.ValidBytes(trimmed) {
		return string(trimmed)
	}
	return normalizeResult(gjson.ParseBytes(trimmed))
}

func normalizeResult(r gjson.Result) string {
	switch {
	case r.IsObject():
		if detail := r.Get("detail"); detail.Exists() {
			return textOf(detail)
		}
	case r.IsArray():
		return joinErrors(r, " ")
	}

	if r.IsObject() {
		if nfe := r.Get("non_field_errors"); nfe.Exists() {
			return joinErrors(nfe, ", ")
		}
		reports := make([]string, 0, 4)
		r.ForEach(func(key, value gjson.Result) bool {
			reports = append(reports, FieldLabel(key.String())+": "+joinErrors(value, ", "))
			return true
		})
		if len(reports) == 0 {
			return r.Raw
		}
		return strings.Join(reports, " ")
	}

	if r.Type == gjson.Null {
		return unknownErrorMessage
	}
	return textOf(r)
}

// joinErrors flattens an error list. A scalar stands in for a one element
// list and nested objects are normalised recursively.
func joinErrors(r gjson.Result, sep string) string {
	if !r.IsArray() {
		if r.IsObject() {
			return normalizeResult(r)
		}
		return textOf(r)
	}
	parts := make([]string, 0, 2)
	r.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() || value.IsArray() {
			parts = append(parts, normalizeResult(value))
		} else {
			parts = append(parts, textOf(value))
		}
		return true
	})
	return strings.Join(parts, sep)
}

func textOf(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.String()
	}
	return r.Raw
}

// FieldLabel renders a snake_case field name for display: "first_name"
// becomes "First Name".
func FieldLabel(field string) string {
	// Casers keep state between calls and are not shared.
	caser := cases.Title(language.Und, cases.NoLower)
	return caser.String(strings.ReplaceAll(field, "_", " "))
}
