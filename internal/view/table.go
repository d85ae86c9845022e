package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Column renders one field of T.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Render writes items as an aligned table. Output depends only on the
// items and columns.
func Render[T any](w io.Writer, columns []Column[T], items []T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, item := range items {
		for i, c := range columns {
			row[i] = sanitize(c.Value(item))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderList renders the current items of l, or the empty message when
// there are none.
func RenderList[T any](w io.Writer, l *List[T], columns []Column[T], empty string) error {
	items := l.Items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	return Render(w, columns, items)
}

// FormatDate renders a timestamp for tables.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02 Jan 2006 15:04")
}

// Truncate shortens s to n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
