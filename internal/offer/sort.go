package offer

import "sort"

// applySort orders offers in place by a single key. Sorting is stable so
// ties keep their relative input order, and the same input always produces
// the same output. An unrecognized key leaves the slice untouched.
func applySort(offers []Offer, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].Price.Amount < offers[j].Price.Amount
		})
	case SortPriceDesc:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].Price.Amount > offers[j].Price.Amount
		})
	case SortDurationAsc:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].TotalDuration < offers[j].TotalDuration
		})
	case SortDurationDesc:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].TotalDuration > offers[j].TotalDuration
		})
	case SortStopsAsc:
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].StopCount < offers[j].StopCount
		})
	}
}
