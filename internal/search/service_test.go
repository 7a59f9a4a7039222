package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"farefinder/internal/history"
	"farefinder/internal/offer"
	"farefinder/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFlightClient is a mock implementation of the FlightClient interface
type MockFlightClient struct {
	mock.Mock
}

func (m *MockFlightClient) SearchFlightOffers(ctx context.Context, q offer.SearchQuery) ([]offer.Offer, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]offer.Offer), args.Error(1)
}

func (m *MockFlightClient) SearchLocations(ctx context.Context, keyword string) ([]offer.Location, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]offer.Location), args.Error(1)
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]string)}
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memoryCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type fakeHistory struct {
	mu      sync.Mutex
	records []history.Record
	saveErr error
}

func (f *fakeHistory) Save(ctx context.Context, rec history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func newTestService(client FlightClient, cache *memoryCache, hist history.Store) *Service {
	return NewService(client, cache, hist, 15, logger.NewWithWriter("development", io.Discard))
}

func testQuery() offer.SearchQuery {
	return offer.SearchQuery{
		TripType:      offer.TripOneWay,
		Origin:        "NYC",
		Destination:   "PAR",
		DepartureDate: "2026-10-05",
		Passengers:    1,
		CabinClass:    offer.CabinEconomy,
	}
}

func testOffers() []offer.Offer {
	return []offer.Offer{
		{ID: "1", Price: offer.Price{Amount: 485.30, Currency: "USD"}, StopCount: 0},
		{ID: "2", Price: offer.Price{Amount: 399.99, Currency: "USD"}, StopCount: 1},
	}
}

func TestSearchFlights_RejectsBeforeProviderCall(t *testing.T) {
	client := new(MockFlightClient)
	svc := newTestService(client, newMemoryCache(), &fakeHistory{})

	q := testQuery()
	q.TripType = offer.TripRoundTrip
	q.ReturnDate = "2026-10-01" // before departure

	_, err := svc.SearchFlights(context.Background(), q)

	assert.True(t, offer.HasCode(err, offer.ErrorCodeValidation))
	client.AssertNotCalled(t, "SearchFlightOffers", mock.Anything, mock.Anything)
}

func TestSearchFlights_RetainsAndRecords(t *testing.T) {
	client := new(MockFlightClient)
	cache := newMemoryCache()
	hist := &fakeHistory{}
	svc := newTestService(client, cache, hist)

	q := testQuery()
	client.On("SearchFlightOffers", mock.Anything, q).Return(testOffers(), nil)

	offers, err := svc.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	assert.Equal(t, 1, cache.len(), "result set should be retained")

	require.Len(t, hist.records, 1)
	assert.Equal(t, "NYC", hist.records[0].Origin)
	assert.Equal(t, "PAR", hist.records[0].Destination)
	assert.Equal(t, 2, hist.records[0].ResultCount)
}

func TestSearchFlights_HistoryFailureDoesNotFailSearch(t *testing.T) {
	client := new(MockFlightClient)
	hist := &fakeHistory{saveErr: errors.New("db down")}
	svc := newTestService(client, newMemoryCache(), hist)

	q := testQuery()
	client.On("SearchFlightOffers", mock.Anything, q).Return(testOffers(), nil)

	offers, err := svc.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}

func TestSearchFlights_UpstreamErrorPropagates(t *testing.T) {
	client := new(MockFlightClient)
	svc := newTestService(client, newMemoryCache(), &fakeHistory{})

	q := testQuery()
	client.On("SearchFlightOffers", mock.Anything, q).
		Return(nil, offer.NewUpstreamError("provider returned non-success status", 500, "boom"))

	_, err := svc.SearchFlights(context.Background(), q)
	assert.True(t, offer.HasCode(err, offer.ErrorCodeUpstream))
}

func TestFilterOffers_UsesRetainedSet(t *testing.T) {
	client := new(MockFlightClient)
	cache := newMemoryCache()
	svc := newTestService(client, cache, &fakeHistory{})

	q := testQuery()
	resultBytes, err := json.Marshal(SearchResult{Query: q, Offers: testOffers()})
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), svc.retentionKey(q), string(resultBytes), time.Minute))

	offers, err := svc.FilterOffers(context.Background(), q, offer.FilterCriteria{DirectOnly: true})
	require.NoError(t, err)

	require.Len(t, offers, 1)
	assert.Equal(t, "1", offers[0].ID)
	client.AssertNotCalled(t, "SearchFlightOffers", mock.Anything, mock.Anything)
}

func TestFilterOffers_RefreshesOnRetentionMiss(t *testing.T) {
	client := new(MockFlightClient)
	svc := newTestService(client, newMemoryCache(), &fakeHistory{})

	q := testQuery()
	client.On("SearchFlightOffers", mock.Anything, q).Return(testOffers(), nil)

	offers, err := svc.FilterOffers(context.Background(), q, offer.FilterCriteria{SortBy: offer.SortPriceAsc})
	require.NoError(t, err)

	require.Len(t, offers, 2)
	assert.Equal(t, "2", offers[0].ID, "cheaper offer first")
	client.AssertExpectations(t)
}

func TestSearchLocations_ShortTermSkipsProvider(t *testing.T) {
	client := new(MockFlightClient)
	svc := newTestService(client, newMemoryCache(), &fakeHistory{})

	for _, term := range []string{"", "p", " p "} {
		locations, err := svc.SearchLocations(context.Background(), term)
		require.NoError(t, err)
		assert.Empty(t, locations)
	}
	client.AssertNotCalled(t, "SearchLocations", mock.Anything, mock.Anything)
}

func TestSearchLocations_TrimsAndDelegates(t *testing.T) {
	client := new(MockFlightClient)
	svc := newTestService(client, newMemoryCache(), &fakeHistory{})

	expected := []offer.Location{{Name: "PARIS", IATACode: "PAR", CountryCode: "FR"}}
	client.On("SearchLocations", mock.Anything, "par").Return(expected, nil)

	locations, err := svc.SearchLocations(context.Background(), "  par  ")
	require.NoError(t, err)
	assert.Equal(t, expected, locations)
}
