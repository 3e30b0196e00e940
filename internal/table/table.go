// Package table renders arbitrary entity collections as aligned
// terminal tables from a column descriptor list, with no knowledge of
// entity semantics.
package table

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conflu/conflu-admin/internal/model"
)

// SkeletonRows is the fixed number of placeholder rows rendered while
// loading, independent of the real row count, so the layout does not
// shift once data arrives.
const SkeletonRows = 5

const (
	placeholder  = "-"
	skeletonCell = "░░░░░░"
)

// ErrActionUnavailable is returned when an action with no registered
// callback is dispatched.
var ErrActionUnavailable = errors.New("action not available for this table")

// Column describes one rendered column. Value extracts the raw field;
// Render, when set, overrides the default stringification.
type Column[T any] struct {
	Key      string
	Label    string
	Sortable bool
	Value    func(item T) any
	Render   func(value any, item T) string
}

// Actions holds the optional row-level capabilities. The presence of a
// callback toggles whether that action is offered; with none set the
// actions column is omitted entirely.
type Actions[T any] struct {
	OnView   func(item T)
	OnEdit   func(item T)
	OnDelete func(item T)
}

func (a Actions[T]) any() bool {
	return a.OnView != nil || a.OnEdit != nil || a.OnDelete != nil
}

func (a Actions[T]) labels() string {
	var names []string
	if a.OnView != nil {
		names = append(names, "ver")
	}
	if a.OnEdit != nil {
		names = append(names, "editar")
	}
	if a.OnDelete != nil {
		names = append(names, "excluir")
	}
	return strings.Join(names, "/")
}

// Table renders one entity collection.
type Table[T model.Entity] struct {
	columns      []Column[T]
	actions      Actions[T]
	sortKey      string
	sortDesc     bool
	emptyMessage string
}

// Option configures a Table.
type Option[T model.Entity] func(*Table[T])

// WithActions registers row-level action callbacks.
func WithActions[T model.Entity](a Actions[T]) Option[T] {
	return func(t *Table[T]) { t.actions = a }
}

// WithEmptyMessage overrides the zero-row informational message.
func WithEmptyMessage[T model.Entity](msg string) Option[T] {
	return func(t *Table[T]) { t.emptyMessage = msg }
}

// WithSort sorts rows by the given column key, which must belong to a
// sortable column to take effect.
func WithSort[T model.Entity](key string, desc bool) Option[T] {
	return func(t *Table[T]) {
		t.sortKey = key
		t.sortDesc = desc
	}
}

// New builds a table over the given column descriptors.
func New[T model.Entity](columns []Column[T], opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		columns:      columns,
		emptyMessage: "Nenhum item encontrado.",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Act dispatches a row action ("view", "edit" or "delete") for one
// item, failing when the corresponding callback is absent.
func (t *Table[T]) Act(action string, item T) error {
	switch action {
	case "view":
		if t.actions.OnView == nil {
			return ErrActionUnavailable
		}
		t.actions.OnView(item)
	case "edit":
		if t.actions.OnEdit == nil {
			return ErrActionUnavailable
		}
		t.actions.OnEdit(item)
	case "delete":
		if t.actions.OnDelete == nil {
			return ErrActionUnavailable
		}
		t.actions.OnDelete(item)
	default:
		return ErrActionUnavailable
	}
	return nil
}

// Render writes the table. While loading it emits exactly SkeletonRows
// placeholder rows matching the column count; with zero rows (and not
// loading) it emits one full-width informational row.
func (t *Table[T]) Render(w io.Writer, data []T, loading bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	headers := make([]string, 0, len(t.columns)+1)
	for _, col := range t.columns {
		label := col.Label
		if col.Sortable && col.Key == t.sortKey {
			if t.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		headers = append(headers, label)
	}
	if t.actions.any() {
		headers = append(headers, "Ações")
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	switch {
	case loading:
		for i := 0; i < SkeletonRows; i++ {
			cells := make([]string, 0, len(headers))
			for range headers {
				cells = append(cells, skeletonCell)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	case len(data) == 0:
		fmt.Fprintln(tw, t.emptyMessage)
	default:
		for _, item := range t.sorted(data) {
			cells := make([]string, 0, len(headers))
			for _, col := range t.columns {
				cells = append(cells, t.cell(col, item))
			}
			if t.actions.any() {
				cells = append(cells, t.actions.labels())
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	}

	return tw.Flush()
}

func (t *Table[T]) cell(col Column[T], item T) string {
	var value any
	if col.Value != nil {
		value = col.Value(item)
	}
	if col.Render != nil {
		return col.Render(value, item)
	}
	return FormatValue(value)
}

// sorted returns data ordered by the active sort column, or data
// itself when no sortable column matches.
func (t *Table[T]) sorted(data []T) []T {
	if t.sortKey == "" {
		return data
	}
	var active *Column[T]
	for i := range t.columns {
		if t.columns[i].Sortable && t.columns[i].Key == t.sortKey {
			active = &t.columns[i]
			break
		}
	}
	if active == nil || active.Value == nil {
		return data
	}

	rows := make([]T, len(data))
	copy(rows, data)
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareValues(active.Value(rows[i]), active.Value(rows[j]))
		if t.sortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return rows
}

// compareValues orders two raw cell values: numerically when both are
// numbers (so 9h sorts before 100h), string-wise on the rendered form
// otherwise.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// FormatValue stringifies a raw cell value, substituting the
// placeholder for nil and empty values.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return placeholder
	case string:
		if val == "" {
			return placeholder
		}
		return val
	case *time.Time:
		if val == nil || val.IsZero() {
			return placeholder
		}
		return val.Format("2006-01-02 15:04")
	case time.Time:
		if val.IsZero() {
			return placeholder
		}
		return val.Format("2006-01-02 15:04")
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		s := fmt.Sprint(val)
		if s == "" {
			return placeholder
		}
		return s
	}
}
