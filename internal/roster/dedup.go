package roster

import "strings"

// dedupSep joins field values into the duplicate key. It is not expected
// to appear in any roster cell.
const dedupSep = "||"

// Deduplicate removes exact-duplicate records within one scrape batch.
// Two records are duplicates iff all field values, joined in canonical
// order, are identical. The first occurrence wins and the relative order
// of survivors is preserved, so deduplicating twice is a no-op.
func Deduplicate(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))

	for _, rec := range records {
		key := strings.Join(rec.Values(), dedupSep)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
