package store

import "spbunet/api/internal/slug"

// MapRegion is a region as the map needs it: colour, coordinates and its
// stat row (nil when no row exists for the region's slug).
type MapRegion struct {
	Region
	Stats *RegionStat `json:"stats"`
}

// JoinRegionStats pairs each region with the stat row whose key slugs to the
// region's slug. Order follows regions.
func JoinRegionStats(regions []Region, stats []RegionStat) []MapRegion {
	byKey := make(map[string]RegionStat, len(stats))
	for _, st := range stats {
		if IsAllKey(st.RegionKey) {
			continue
		}
		k := slug.Make(st.RegionKey)
		if _, dup := byKey[k]; !dup {
			byKey[k] = st
		}
	}

	out := make([]MapRegion, 0, len(regions))
	for _, r := range regions {
		mr := MapRegion{Region: r}
		if st, ok := byKey[r.Slug]; ok {
			st := st
			mr.Stats = &st
		}
		out = append(out, mr)
	}
	return out
}
