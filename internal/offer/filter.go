package offer

import "time"

type TimeBucket string

const (
	BucketAny       TimeBucket = "any"
	BucketMorning   TimeBucket = "morning"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
)

type SortKey string

const (
	SortNone         SortKey = ""
	SortPriceAsc     SortKey = "price_asc"
	SortPriceDesc    SortKey = "price_desc"
	SortDurationAsc  SortKey = "duration_asc"
	SortDurationDesc SortKey = "duration_desc"
	SortStopsAsc     SortKey = "stops_asc"
)

type FilterCriteria struct {
	SortBy          SortKey    `json:"sort_by,omitempty"`
	DirectOnly      bool       `json:"direct_only,omitempty"`
	DepartureBucket TimeBucket `json:"departure_bucket,omitempty"`
	ArrivalBucket   TimeBucket `json:"arrival_bucket,omitempty"`
}

// Apply narrows offers by the active filters and then orders the survivors
// by the sort key. It never mutates the input slice and never fails:
// unrecognized criteria values degrade to a no-op for that criterion.
// Filters are independent, so their application order does not matter.
func Apply(offers []Offer, criteria FilterCriteria) []Offer {
	filtered := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if matchesCriteria(o, criteria) {
			filtered = append(filtered, o)
		}
	}

	applySort(filtered, criteria.SortBy)
	return filtered
}

func matchesCriteria(o Offer, criteria FilterCriteria) bool {
	if criteria.DirectOnly && o.StopCount != 0 {
		return false
	}

	if bucketActive(criteria.DepartureBucket) {
		if len(o.OutboundSegments) == 0 {
			return false
		}
		dep := o.OutboundSegments[0].DepartureTime
		if BucketForTime(dep) != criteria.DepartureBucket {
			return false
		}
	}

	if bucketActive(criteria.ArrivalBucket) {
		if len(o.OutboundSegments) == 0 {
			return false
		}
		arr := o.OutboundSegments[len(o.OutboundSegments)-1].ArrivalTime
		if BucketForTime(arr) != criteria.ArrivalBucket {
			return false
		}
	}

	return true
}

func bucketActive(b TimeBucket) bool {
	switch b {
	case BucketMorning, BucketAfternoon, BucketEvening:
		return true
	default:
		// "", "any" and unrecognized values all mean no constraint
		return false
	}
}

// BucketForTime classifies a timestamp by its hour of day, local to the
// timestamp itself: morning [06:00,12:00), afternoon [12:00,18:00),
// evening everything else (18:00 through 05:59).
func BucketForTime(t time.Time) TimeBucket {
	switch hour := t.Hour(); {
	case hour >= 6 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 18:
		return BucketAfternoon
	default:
		return BucketEvening
	}
}
