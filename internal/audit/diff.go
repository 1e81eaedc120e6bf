package audit

import (
	"reflect"
	"sort"

	"github.com/gosuda/taskledger/internal/domain"
)

// ignoredFields never show up in a diff: the identifier and the revision
// counter, plus their document-store spellings.
var ignoredFields = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
	"id":      {},
	"version": {},
	"_id":     {},
	"__v":     {},
}

// Diff returns one FieldChange per field whose value differs between before
// and after, ordered by field name. A key present on one side only counts as
// a change. ok is false when either snapshot is absent, meaning no detailed
// change is available; two identical snapshots yield an empty, non-nil slice.
func Diff(before, after domain.Snapshot) (changes []domain.FieldChange, ok bool) {
	if before == nil || after == nil {
		return nil, false
	}

	keys := make([]string, 0, len(before)+len(after))
	seen := make(map[string]struct{}, len(before)+len(after))
	for _, s := range []domain.Snapshot{before, after} {
		for k := range s {
			if _, skip := ignoredFields[k]; skip {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	changes = make([]domain.FieldChange, 0, len(keys))
	for _, k := range keys {
		b, inBefore := before[k]
		a, inAfter := after[k]
		if inBefore == inAfter && reflect.DeepEqual(b, a) {
			continue
		}
		changes = append(changes, domain.FieldChange{Field: k, Before: b, After: a})
	}

	return changes, true
}
