package app

import (
	"math"
	"strconv"
	"strings"

	"playgroup_finder/internal/domain"
)

// coordFlexible reads a coordinate cell: a number, or text such as
// "45.50" or "45,50". Non-finite values are rejected.
func coordFlexible(v domain.Value) (float64, bool) {
	var f float64
	switch v.Kind() {
	case domain.KindNumber:
		f = v.Float()
	case domain.KindString:
		s := strings.TrimSpace(strings.ReplaceAll(v.Text(), ",", "."))
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// mapMarkers keeps records with usable lat/lng, first one per Address.
// The returned records are copies with numeric coordinates.
func mapMarkers(recs []domain.Record) []domain.Marker {
	seen := make(map[string]struct{}, len(recs))
	out := make([]domain.Marker, 0, len(recs))
	for _, r := range recs {
		lat, ok := coordFlexible(r[domain.FieldLat])
		if !ok {
			continue
		}
		lng, ok := coordFlexible(r[domain.FieldLng])
		if !ok {
			continue
		}
		addr := r.Str(domain.FieldAddress)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		view := make(domain.Record, len(r))
		for k, v := range r {
			view[k] = v
		}
		view[domain.FieldLat] = domain.Number(lat)
		view[domain.FieldLng] = domain.Number(lng)
		out = append(out, domain.Marker{Record: view, Lat: lat, Lng: lng})
	}
	return out
}
