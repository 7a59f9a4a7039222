package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"farefinder/internal/offer"
	"farefinder/pkg/logger"
)

// locationPageSize caps how many autocomplete rows one lookup returns.
const locationPageSize = 10

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	currency   string
	maxResults int
	logger     logger.Client
}

func NewClient(httpClient *http.Client, baseURL string, tokens TokenSource,
	currency string, maxResults int, logger logger.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		currency:   currency,
		maxResults: maxResults,
		logger:     logger,
	}
}

// SearchFlightOffers runs one flight-offers search and returns the
// normalized results. Normalization is strict: a single offer that cannot
// be mapped aborts the whole search, since a partially wrong price list is
// worse than no list.
func (c *Client) SearchFlightOffers(ctx context.Context, q offer.SearchQuery) ([]offer.Offer, error) {
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", strconv.Itoa(q.Passengers))
	params.Set("currencyCode", c.currency)
	params.Set("max", strconv.Itoa(c.maxResults))
	if q.CabinClass != "" {
		params.Set("travelClass", string(q.CabinClass))
	}
	if q.TripType == offer.TripRoundTrip && q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	if q.DirectOnly {
		params.Set("nonStop", "true")
	}

	body, err := c.get(ctx, "/v2/shopping/flight-offers", params)
	if err != nil {
		return nil, err
	}

	var resp flightOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, offer.NewParseError("failed to decode flight offers response", err)
	}

	offers := make([]offer.Offer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		normalized, err := normalizeOffer(raw)
		if err != nil {
			return nil, err
		}
		offers = append(offers, normalized)
	}

	c.logger.Debug("flight offers fetched",
		logger.Field{Key: "origin", Value: q.Origin},
		logger.Field{Key: "destination", Value: q.Destination},
		logger.Field{Key: "count", Value: len(offers)},
	)

	return offers, nil
}

// SearchLocations looks up city and airport matches for a free-text
// keyword. Rows that cannot be mapped are skipped: partial autocomplete
// beats a failed one.
func (c *Client) SearchLocations(ctx context.Context, keyword string) ([]offer.Location, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "CITY,AIRPORT")
	params.Set("page[limit]", strconv.Itoa(locationPageSize))

	body, err := c.get(ctx, "/v1/reference-data/locations", params)
	if err != nil {
		return nil, err
	}

	var resp locationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, offer.NewUpstreamError("failed to decode locations response", 0, "")
	}

	locations := make([]offer.Location, 0, len(resp.Data))
	for _, raw := range resp.Data {
		if raw.IataCode == "" || raw.Name == "" {
			continue
		}
		locations = append(locations, offer.Location{
			Name:        raw.Name,
			IATACode:    raw.IataCode,
			CountryCode: raw.Address.CountryCode,
			DetailName:  raw.DetailedName,
		})
	}

	return locations, nil
}

// get issues one bearer-authed GET against the provider and returns the
// response body, converting auth and transport failures to AppErrors.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	cred, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, offer.NewUpstreamError("failed to build provider request", 0, "")
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("provider call failed",
			logger.Field{Key: "path", Value: path},
			logger.Field{Key: "err", Value: err},
		)
		return nil, &offer.AppError{
			Code:    offer.ErrorCodeUpstream,
			Message: "provider call failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, offer.NewUpstreamError("failed to read provider response", resp.StatusCode, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("provider returned non-success status",
			logger.Field{Key: "path", Value: path},
			logger.Field{Key: "status", Value: resp.StatusCode},
		)
		return nil, offer.NewUpstreamError("provider returned non-success status", resp.StatusCode, string(body))
	}

	return body, nil
}

type locationsResponse struct {
	Data []rawLocation `json:"data"`
}

type rawLocation struct {
	Name         string `json:"name"`
	IataCode     string `json:"iataCode"`
	DetailedName string `json:"detailedName"`
	Address      struct {
		CountryCode string `json:"countryCode"`
	} `json:"address"`
}
