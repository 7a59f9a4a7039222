package amadeus

import (
	"context"
	"net/http"
	"sync"
	"time"

	"farefinder/internal/offer"
	"farefinder/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// fallbackTokenTTL is used when the token response carries no usable
// expires_in. Matches the provider's documented default of 1799 seconds.
const fallbackTokenTTL = 1799 * time.Second

// Credential is a bearer token plus the instant it stops being usable.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ValidAt reports whether the credential may still be sent at the given
// instant. Validity ends strictly at ExpiresAt.
func (c Credential) ValidAt(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}

type TokenSource interface {
	GetToken(ctx context.Context) (Credential, error)
}

// CachedTokenSource holds one client-credentials token and replaces it
// lazily once it expires. The mutex doubles as the single-flight guard:
// concurrent callers hitting an expired credential block on the one
// refresh instead of each issuing their own.
type CachedTokenSource struct {
	conf       *clientcredentials.Config
	httpClient *http.Client
	logger     logger.Client

	mu      sync.Mutex
	current Credential
	now     func() time.Time
}

func NewCachedTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret string, logger logger.Client) *CachedTokenSource {
	return &CachedTokenSource{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *CachedTokenSource) GetToken(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.ValidAt(s.now()) {
		return s.current, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.conf.Token(ctx)
	if err != nil {
		s.logger.Error("token request failed", logger.Field{Key: "err", Value: err})
		return Credential{}, offer.NewAuthError("failed to obtain provider token", err)
	}
	if tok.AccessToken == "" {
		return Credential{}, offer.NewAuthError("provider returned an empty token", nil)
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(fallbackTokenTTL)
	}

	s.current = Credential{
		AccessToken: tok.AccessToken,
		ExpiresAt:   expiresAt,
	}
	s.logger.Debug("provider token refreshed",
		logger.Field{Key: "expires_at", Value: expiresAt.Format(time.RFC3339)},
	)

	return s.current, nil
}
