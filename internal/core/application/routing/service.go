package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/pkg/retry"
	"golang.org/x/sync/errgroup"
)

const priceDecimals = 8

var (
	ErrInvalidQuote = fmt.Errorf("venue returned a non positive price")

	// DefaultQuotePolicy is the retry policy applied to a whole quote round.
	DefaultQuotePolicy = retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2,
	}
)

// Service selects the venue offering the best price for an order.
type Service struct {
	venues       []ports.Venue
	defaultVenue string
	policy       retry.Policy
	metrics      ports.Metrics
}

// NewService returns a routing service querying the given venues. The
// default venue, if not empty, must be one of them and wins ties.
func NewService(
	venues []ports.Venue, defaultVenue string, policy retry.Policy,
	metrics ports.Metrics,
) (*Service, error) {
	if len(venues) <= 0 {
		return nil, domain.ErrNoVenues
	}
	names := make(map[string]struct{})
	for _, v := range venues {
		if v == nil {
			return nil, fmt.Errorf("missing venue")
		}
		if _, ok := names[v.Name()]; ok {
			return nil, fmt.Errorf("duplicated venue %s", v.Name())
		}
		names[v.Name()] = struct{}{}
	}
	if defaultVenue != "" {
		if _, ok := names[defaultVenue]; !ok {
			return nil, fmt.Errorf("default venue %s is not configured", defaultVenue)
		}
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quote retry policy: %w", err)
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}

	return &Service{venues, defaultVenue, policy, metrics}, nil
}

// Policy returns the retry policy of the quote round.
func (s *Service) Policy() retry.Policy {
	return s.policy
}

// Venue returns the configured venue with the given name.
func (s *Service) Venue(name string) (ports.Venue, bool) {
	for _, v := range s.venues {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Route queries every venue and returns the one with the highest normalized
// price. A round is accepted only if every venue answered; otherwise the
// whole round is retried according to the service's policy.
func (s *Service) Route(
	ctx context.Context, order domain.Order,
) (*domain.RouteResult, error) {
	quotes, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]domain.Quote, error) {
		start := time.Now()
		quotes, err := s.quoteRound(ctx, order)
		s.metrics.QuoteRound(time.Since(start), err)
		if err != nil {
			log.WithError(err).WithField("order_id", order.ID).Debug(
				"routing: quote round failed",
			)
		}
		return quotes, err
	})
	if err != nil {
		return nil, &domain.RoutingError{Err: err}
	}

	res := s.selectVenue(quotes)
	s.metrics.RouteSelected(res.Venue)
	return res, nil
}

func (s *Service) quoteRound(
	ctx context.Context, order domain.Order,
) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, len(s.venues))

	eg, ctx := errgroup.WithContext(ctx)
	for i := range s.venues {
		i, venue := i, s.venues[i]
		eg.Go(func() error {
			q, err := venue.Quote(ctx, order.TokenIn, order.TokenOut, order.AmountIn)
			if err != nil {
				return fmt.Errorf("%s: %w", venue.Name(), err)
			}
			quote, err := normalizeQuote(venue.Name(), order.TokenIn, q)
			if err != nil {
				return fmt.Errorf("%s: %w", venue.Name(), err)
			}
			quotes[i] = *quote
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// normalizeQuote expresses the venue price as units of tokenOut per unit of
// tokenIn, inverting it if tokenIn is the venue's base asset.
func normalizeQuote(
	venue, tokenIn string, q *ports.VenueQuote,
) (*domain.Quote, error) {
	if q == nil || !q.Price.IsPositive() {
		return nil, ErrInvalidQuote
	}

	price := q.Price
	if q.BaseAsset == tokenIn {
		price = decimal.NewFromInt(1).Div(q.Price)
	}

	return &domain.Quote{
		Venue:     venue,
		Price:     price.Round(priceDecimals),
		RawPrice:  q.Price,
		BaseAsset: q.BaseAsset,
		Fee:       q.Fee,
	}, nil
}

// selectVenue picks the quote with the strictly highest normalized price.
// Among equal best prices the default venue wins, otherwise the first one
// in configuration order.
func (s *Service) selectVenue(quotes []domain.Quote) *domain.RouteResult {
	best := 0
	for i := 1; i < len(quotes); i++ {
		cmp := quotes[i].Price.Cmp(quotes[best].Price)
		if cmp > 0 || (cmp == 0 && quotes[i].Venue == s.defaultVenue) {
			best = i
		}
	}

	winner := quotes[best]
	res := &domain.RouteResult{
		Venue:  winner.Venue,
		Quote:  winner,
		Quotes: quotes,
	}

	if len(quotes) == 1 {
		res.Reason = fmt.Sprintf(
			"%s selected: only venue available (%s)", winner.Venue, winner.Price,
		)
		return res
	}

	runnerUp := -1
	for i := range quotes {
		if i == best {
			continue
		}
		if runnerUp < 0 || quotes[i].Price.GreaterThan(quotes[runnerUp].Price) {
			runnerUp = i
		}
	}
	other := quotes[runnerUp]

	if winner.Price.Equal(other.Price) {
		res.Reason = fmt.Sprintf(
			"%s selected: equal price (%s vs %s), tie broken in favor of %s",
			winner.Venue, winner.Price, other.Price, winner.Venue,
		)
		return res
	}

	res.Reason = fmt.Sprintf(
		"%s selected: better effective price (%s vs %s)",
		winner.Venue, winner.Price, other.Price,
	)
	return res
}
