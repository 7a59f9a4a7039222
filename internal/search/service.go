package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"farefinder/internal/history"
	"farefinder/internal/offer"
	"farefinder/pkg/cache"
	"farefinder/pkg/logger"
)

// minLocationTermLen is the shortest autocomplete term worth sending to
// the provider; anything shorter returns an empty list without a call.
const minLocationTermLen = 2

type FlightClient interface {
	SearchFlightOffers(ctx context.Context, q offer.SearchQuery) ([]offer.Offer, error)
	SearchLocations(ctx context.Context, keyword string) ([]offer.Location, error)
}

// Service is the caller-facing gateway: it validates queries, drives the
// provider client, retains each result set for later filtering, and writes
// the best-effort search-history audit record.
type Service struct {
	client  FlightClient
	cache   cache.Cache
	history history.Store
	ttl     time.Duration
	logger  logger.Client
}

func NewService(client FlightClient, cache cache.Cache, history history.Store,
	ttlMinutes int, logger logger.Client) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		history: history,
		ttl:     time.Duration(ttlMinutes) * time.Minute,
		logger:  logger,
	}
}

type SearchResult struct {
	Query  offer.SearchQuery `json:"query"`
	Offers []offer.Offer     `json:"offers"`
}

// retentionKey derives a deterministic key for one query's retained
// offer set.
func (s *Service) retentionKey(q offer.SearchQuery) string {
	key := fmt.Sprintf("offers:%s:%s:%s:%s:%s:%d:%s:%t",
		q.TripType,
		q.Origin,
		q.Destination,
		q.DepartureDate,
		q.ReturnDate,
		q.Passengers,
		q.CabinClass,
		q.DirectOnly,
	)

	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("offers:search:%x", hash[:16])
}

// SearchFlights validates the query, fetches and normalizes offers, then
// retains the set and records the audit row. Retention and audit failures
// are logged and never fail the search.
func (s *Service) SearchFlights(ctx context.Context, q offer.SearchQuery) ([]offer.Offer, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	offers, err := s.client.SearchFlightOffers(ctx, q)
	if err != nil {
		return nil, err
	}

	s.retain(ctx, q, offers)
	s.record(ctx, q, len(offers))

	return offers, nil
}

// FilterOffers re-applies filter criteria to the offer set retained by the
// most recent search for the same query. On a retention miss it searches
// again and retains the fresh set in the background.
func (s *Service) FilterOffers(ctx context.Context, q offer.SearchQuery, criteria offer.FilterCriteria) ([]offer.Offer, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := s.retentionKey(q)
	cached, err := s.cache.Get(ctx, key)
	if err == nil && cached != "" {
		var result SearchResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return offer.Apply(result.Offers, criteria), nil
		}
		s.logger.Error("failed to unmarshal retained offers", logger.Field{Key: "err", Value: err})
	}

	offers, err := s.client.SearchFlightOffers(ctx, q)
	if err != nil {
		return nil, err
	}

	resultBytes, err := json.Marshal(SearchResult{Query: q, Offers: offers})
	if err == nil {
		go func() {
			bgCtx := context.Background()
			if err := s.cache.Set(bgCtx, key, string(resultBytes), s.ttl); err != nil {
				s.logger.Error("failed to retain refreshed offers",
					logger.Field{Key: "err", Value: err},
					logger.Field{Key: "key", Value: key},
				)
			}
		}()
	}

	return offer.Apply(offers, criteria), nil
}

// SearchLocations resolves autocomplete matches for a free-text term.
// Short terms are a UX throttle, not an error: they return an empty list
// without contacting the provider.
func (s *Service) SearchLocations(ctx context.Context, term string) ([]offer.Location, error) {
	term = strings.TrimSpace(term)
	if len(term) < minLocationTermLen {
		return []offer.Location{}, nil
	}
	return s.client.SearchLocations(ctx, term)
}

// RecentSearches lists the latest audit records.
func (s *Service) RecentSearches(ctx context.Context, limit int) ([]history.Record, error) {
	return s.history.Recent(ctx, limit)
}

func (s *Service) retain(ctx context.Context, q offer.SearchQuery, offers []offer.Offer) {
	resultBytes, err := json.Marshal(SearchResult{Query: q, Offers: offers})
	if err != nil {
		s.logger.Error("failed to marshal offers for retention", logger.Field{Key: "err", Value: err})
		return
	}

	key := s.retentionKey(q)
	if err := s.cache.Set(ctx, key, string(resultBytes), s.ttl); err != nil {
		s.logger.Error("failed to retain offers",
			logger.Field{Key: "err", Value: err},
			logger.Field{Key: "key", Value: key},
		)
	}
}

func (s *Service) record(ctx context.Context, q offer.SearchQuery, resultCount int) {
	if s.history == nil {
		return
	}

	rec := history.Record{
		TripType:      string(q.TripType),
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		ReturnDate:    q.ReturnDate,
		Passengers:    q.Passengers,
		CabinClass:    string(q.CabinClass),
		ResultCount:   resultCount,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Error("failed to write search history",
			logger.Field{Key: "err", Value: err},
			logger.Field{Key: "route", Value: q.Origin + "-" + q.Destination},
		)
	}
}
