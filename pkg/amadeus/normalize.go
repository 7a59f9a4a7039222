package amadeus

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"farefinder/internal/offer"
)

// Raw response shapes for the provider's flight-offers endpoint. Only the
// fields the normalizer reads are declared.

type flightOffersResponse struct {
	Data []rawOffer `json:"data"`
}

type rawOffer struct {
	ID          string         `json:"id"`
	Itineraries []rawItinerary `json:"itineraries"`
	Price       rawPrice       `json:"price"`
}

type rawItinerary struct {
	Duration string       `json:"duration"`
	Segments []rawSegment `json:"segments"`
}

type rawSegment struct {
	Departure   rawEndpoint `json:"departure"`
	Arrival     rawEndpoint `json:"arrival"`
	CarrierCode string      `json:"carrierCode"`
	Number      string      `json:"number"`
	Duration    string      `json:"duration"`
}

type rawEndpoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"`
}

type rawPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	GrandTotal string `json:"grandTotal"`
}

// normalizeOffer maps one raw provider offer into the canonical Offer.
// Price parsing is strict. Segment durations are cosmetic and degrade to
// zero on malformed input instead of dropping a priceable result.
func normalizeOffer(raw rawOffer) (offer.Offer, error) {
	total := raw.Price.Total
	if total == "" {
		total = raw.Price.GrandTotal
	}
	amount, err := strconv.ParseFloat(total, 64)
	if err != nil {
		return offer.Offer{}, offer.NewParseError(
			fmt.Sprintf("offer %s has non-numeric price %q", raw.ID, total), err)
	}

	result := offer.Offer{
		ID: raw.ID,
		Price: offer.Price{
			Amount:   amount,
			Currency: raw.Price.Currency,
		},
	}

	// First itinerary is the outbound leg, second (if any) the return leg.
	// The provider never sends more than two for the supported trip types;
	// anything past the second is ignored.
	if len(raw.Itineraries) > 0 {
		result.OutboundSegments = normalizeSegments(raw.Itineraries[0].Segments)
	}
	if len(raw.Itineraries) > 1 {
		result.ReturnSegments = normalizeSegments(raw.Itineraries[1].Segments)
	}

	if n := len(result.OutboundSegments); n > 0 {
		result.StopCount = n - 1
		first := result.OutboundSegments[0]
		last := result.OutboundSegments[n-1]
		result.TotalDuration = last.ArrivalTime.Sub(first.DepartureTime)
	}

	return result, nil
}

func normalizeSegments(raws []rawSegment) []offer.Segment {
	segments := make([]offer.Segment, 0, len(raws))
	for _, s := range raws {
		segments = append(segments, offer.Segment{
			Origin:        s.Departure.IataCode,
			Destination:   s.Arrival.IataCode,
			DepartureTime: parseDateTime(s.Departure.At),
			ArrivalTime:   parseDateTime(s.Arrival.At),
			Duration:      parseISODuration(s.Duration),
			FlightNumber:  s.CarrierCode + s.Number,
			CarrierCode:   s.CarrierCode,
		})
	}
	return segments
}

// parseDateTime accepts the provider's local timestamps, with or without a
// zone offset. Unparseable input yields the zero time.
func parseDateTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02T15:04:05", value)
	return t
}

// parseISODuration parses ISO-8601 durations of the shape the provider
// emits, e.g. "PT2H30M" or "P1DT4H". Malformed input parses as zero.
func parseISODuration(value string) time.Duration {
	rest, ok := strings.CutPrefix(value, "P")
	if !ok {
		return 0
	}

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range rest {
		switch {
		case r == 'T':
			if inTime || num != "" {
				return 0
			}
			inTime = true
		case r >= '0' && r <= '9':
			num += string(r)
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0
			}
			num = ""
			switch {
			case r == 'D' && !inTime:
				total += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				total += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				total += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				total += time.Duration(n) * time.Second
			default:
				return 0
			}
		}
	}
	if num != "" {
		return 0
	}
	return total
}
