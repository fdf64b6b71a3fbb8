package filter

import "playgroup_finder/internal/domain"

// FromRows zips the header row onto every data row. Cells past the end of
// a short row are absent; cells beyond the header are dropped.
func FromRows(t domain.Table) []domain.Record {
	header, rows := t.Header(), t.Rows()
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(domain.Record, len(header))
		for i, h := range header {
			if i >= len(row) {
				// a later duplicate header without a cell hides the earlier one
				delete(rec, h)
				continue
			}
			rec[h] = domain.String(row[i])
		}
		out = append(out, rec)
	}
	return out
}
