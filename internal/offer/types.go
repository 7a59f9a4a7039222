package offer

import "time"

type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

const dateLayout = "2006-01-02"

// SearchQuery describes one flight search. Dates are ISO YYYY-MM-DD strings,
// the same shape the provider expects.
type SearchQuery struct {
	TripType      TripType   `json:"trip_type"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departure_date"`
	ReturnDate    string     `json:"return_date,omitempty"`
	Passengers    int        `json:"passengers"`
	CabinClass    CabinClass `json:"cabin_class,omitempty"`
	DirectOnly    bool       `json:"direct_only,omitempty"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Segment is one flown leg. Timestamps are provider-local.
type Segment struct {
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	DepartureTime time.Time     `json:"departure_time"`
	ArrivalTime   time.Time     `json:"arrival_time"`
	Duration      time.Duration `json:"duration"`
	FlightNumber  string        `json:"flight_number"`
	CarrierCode   string        `json:"carrier_code"`
}

// Offer is one priced itinerary option from the provider, already normalized.
// StopCount and TotalDuration are derived from the outbound segments.
type Offer struct {
	ID               string        `json:"id"`
	Price            Price         `json:"price"`
	OutboundSegments []Segment     `json:"outbound_segments"`
	ReturnSegments   []Segment     `json:"return_segments,omitempty"`
	StopCount        int           `json:"stop_count"`
	TotalDuration    time.Duration `json:"total_duration"`
}

// Location is a city or airport autocomplete match.
type Location struct {
	Name        string `json:"name"`
	IATACode    string `json:"iata_code"`
	CountryCode string `json:"country_code"`
	DetailName  string `json:"detail_name,omitempty"`
}

func (q SearchQuery) Validate() error {
	if q.Origin == "" {
		return NewValidationError("origin is required")
	}
	if q.Destination == "" {
		return NewValidationError("destination is required")
	}
	if q.TripType != TripOneWay && q.TripType != TripRoundTrip {
		return NewValidationError("trip_type must be one_way or round_trip")
	}
	if q.Passengers < 1 || q.Passengers > 9 {
		return NewValidationError("passengers must be between 1 and 9")
	}
	switch q.CabinClass {
	case "", CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		return NewValidationError("unknown cabin class: " + string(q.CabinClass))
	}

	depDate, err := time.Parse(dateLayout, q.DepartureDate)
	if err != nil {
		return NewValidationError("departure_date must be YYYY-MM-DD")
	}

	if q.TripType == TripRoundTrip {
		if q.ReturnDate == "" {
			return NewValidationError("return_date is required for round trips")
		}
		retDate, err := time.Parse(dateLayout, q.ReturnDate)
		if err != nil {
			return NewValidationError("return_date must be YYYY-MM-DD")
		}
		if retDate.Before(depDate) {
			return NewValidationError("return_date must not precede departure_date")
		}
	}

	return nil
}
