package amadeus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"farefinder/internal/offer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokenSource struct {
	cred Credential
	err  error
}

func (s *staticTokenSource) GetToken(ctx context.Context) (Credential, error) {
	return s.cred, s.err
}

const flightOffersBody = `{
	"data": [
		{
			"id": "1",
			"itineraries": [
				{
					"duration": "PT7H15M",
					"segments": [
						{
							"departure": {"iataCode": "JFK", "at": "2026-10-05T19:15:00"},
							"arrival": {"iataCode": "CDG", "at": "2026-10-06T08:30:00"},
							"carrierCode": "AF",
							"number": "23",
							"duration": "PT7H15M"
						}
					]
				}
			],
			"price": {"currency": "USD", "total": "485.30"}
		},
		{
			"id": "2",
			"itineraries": [
				{
					"duration": "PT9H40M",
					"segments": [
						{
							"departure": {"iataCode": "JFK", "at": "2026-10-05T17:00:00"},
							"arrival": {"iataCode": "AMS", "at": "2026-10-06T06:20:00"},
							"carrierCode": "KL",
							"number": "642",
							"duration": "PT7H20M"
						},
						{
							"departure": {"iataCode": "AMS", "at": "2026-10-06T08:00:00"},
							"arrival": {"iataCode": "CDG", "at": "2026-10-06T09:10:00"},
							"carrierCode": "KL",
							"number": "2006",
							"duration": "PT1H10M"
						}
					]
				}
			],
			"price": {"currency": "USD", "total": "399.99"}
		}
	]
}`

func newClient(srv *httptest.Server) *Client {
	tokens := &staticTokenSource{cred: Credential{AccessToken: "test-token"}}
	return NewClient(srv.Client(), srv.URL, tokens, "USD", 50, testLogger())
}

func oneWayQuery() offer.SearchQuery {
	return offer.SearchQuery{
		TripType:      offer.TripOneWay,
		Origin:        "NYC",
		Destination:   "PAR",
		DepartureDate: "2026-10-05",
		Passengers:    1,
		CabinClass:    offer.CabinEconomy,
	}
}

func TestSearchFlightOffers_OneWay(t *testing.T) {
	var gotParams url.Values
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shopping/flight-offers", r.URL.Path)
		gotParams = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(flightOffersBody))
	}))
	defer srv.Close()

	offers, err := newClient(srv).SearchFlightOffers(context.Background(), oneWayQuery())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "NYC", gotParams.Get("originLocationCode"))
	assert.Equal(t, "PAR", gotParams.Get("destinationLocationCode"))
	assert.Equal(t, "2026-10-05", gotParams.Get("departureDate"))
	assert.Equal(t, "1", gotParams.Get("adults"))
	assert.Equal(t, "USD", gotParams.Get("currencyCode"))
	assert.Equal(t, "50", gotParams.Get("max"))
	assert.Equal(t, "ECONOMY", gotParams.Get("travelClass"))
	assert.False(t, gotParams.Has("returnDate"), "one-way search must not send returnDate")
	assert.False(t, gotParams.Has("nonStop"))

	require.Len(t, offers, 2)
	for _, o := range offers {
		assert.Empty(t, o.ReturnSegments)
		assert.Greater(t, o.Price.Amount, 0.0)
	}
	assert.Equal(t, 0, offers[0].StopCount)
	assert.Equal(t, 1, offers[1].StopCount)
}

func TestSearchFlightOffers_RoundTripAndNonStopParams(t *testing.T) {
	var gotParams url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParams = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	q := oneWayQuery()
	q.TripType = offer.TripRoundTrip
	q.ReturnDate = "2026-10-12"
	q.DirectOnly = true

	offers, err := newClient(srv).SearchFlightOffers(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, offers)

	assert.Equal(t, "2026-10-12", gotParams.Get("returnDate"))
	assert.Equal(t, "true", gotParams.Get("nonStop"))
}

func TestSearchFlightOffers_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"title":"oops"}]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).SearchFlightOffers(context.Background(), oneWayQuery())
	require.Error(t, err)

	var appErr *offer.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, offer.ErrorCodeUpstream, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.UpstreamStatus)
	assert.Contains(t, appErr.Body, "oops")
}

func TestSearchFlightOffers_OneBadOfferAbortsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "1", "price": {"currency": "USD", "total": "100.00"}},
			{"id": "2", "price": {"currency": "USD", "total": "NaNness"}}
		]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).SearchFlightOffers(context.Background(), oneWayQuery())
	assert.True(t, offer.HasCode(err, offer.ErrorCodeParse))
}

func TestSearchFlightOffers_AuthErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called when auth fails")
	}))
	defer srv.Close()

	tokens := &staticTokenSource{err: offer.NewAuthError("bad credentials", nil)}
	client := NewClient(srv.Client(), srv.URL, tokens, "USD", 50, testLogger())

	_, err := client.SearchFlightOffers(context.Background(), oneWayQuery())
	assert.True(t, offer.HasCode(err, offer.ErrorCodeAuth))
}

func TestSearchLocations(t *testing.T) {
	var gotParams url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reference-data/locations", r.URL.Path)
		gotParams = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"name": "PARIS", "iataCode": "PAR", "detailedName": "PARIS/FR", "address": {"countryCode": "FR"}},
			{"name": "", "iataCode": "XXX"},
			{"name": "CHARLES DE GAULLE", "iataCode": "CDG", "detailedName": "PARIS/FR:CHARLES DE G", "address": {"countryCode": "FR"}}
		]}`))
	}))
	defer srv.Close()

	locations, err := newClient(srv).SearchLocations(context.Background(), "par")
	require.NoError(t, err)

	assert.Equal(t, "par", gotParams.Get("keyword"))
	assert.Equal(t, "10", gotParams.Get("page[limit]"))

	// The nameless row is skipped, not fatal
	require.Len(t, locations, 2)
	assert.Equal(t, "PAR", locations[0].IATACode)
	assert.Equal(t, "FR", locations[0].CountryCode)
	assert.Equal(t, "PARIS/FR:CHARLES DE G", locations[1].DetailName)
}
