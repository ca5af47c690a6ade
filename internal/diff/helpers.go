package diff

import (
	"cmp"
	"slices"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// nullValue is how an absent pointer value is shown in a FieldChange.
const nullValue = "NULL"

type fieldChangeCollector struct {
	Changes []*FieldChange
}

func (c *fieldChangeCollector) Add(field, oldV, newV string) {
	if oldV == newV {
		return
	}
	c.Changes = append(c.Changes, &FieldChange{Field: field, Old: oldV, New: newV})
}

// AddPtr records a change between optional values. nil and "" are distinct.
func (c *fieldChangeCollector) AddPtr(field string, oldV, newV *string) {
	if ptrEq(oldV, newV) {
		return
	}
	c.Changes = append(c.Changes, &FieldChange{Field: field, Old: ptrStr(oldV), New: ptrStr(newV)})
}

// Named is implemented by types that have a name identifier.
type Named interface {
	GetName() string
}

// sortNamed sorts items by name, case-insensitively. Items with equal names
// keep their relative order.
func sortNamed[T Named](items []T) {
	sortByFunc(items, func(item T) string { return item.GetName() })
}

// sortByFunc sorts items by the key returned by getName, case-insensitively.
func sortByFunc[T any](items []T, getName func(T) string) {
	if len(items) <= 1 {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(strings.ToLower(getName(a)), strings.ToLower(getName(b)))
	})
}

func foreignKeySortKey(fk *core.ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return foreignKeyTupleKey(fk)
}

func equalStringSliceCI(a, b []string) bool {
	return slices.EqualFunc(a, b, strings.EqualFold)
}

func ptrStr(p *string) string {
	if p == nil {
		return nullValue
	}
	return *p
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatNameList(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}

func formatIndexColumns(cols []core.IndexColumn) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return formatNameList(names)
}

func unionKeys(a, b map[string]string) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
