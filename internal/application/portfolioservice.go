package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/pandabot/internal/domain/model"
	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// ErrInvalidAPIKey is returned by Login when the account platform rejects the key.
var ErrInvalidAPIKey = errors.New("api key rejected by account platform")

// ErrEmptyAPIKey is returned by Login when no key was supplied.
var ErrEmptyAPIKey = errors.New("api key is empty")

// Portfolio is the combined balance view of one user. A nil slice with the
// matching No* flag set means the platform reported no wallets of that kind.
type Portfolio struct {
	Assets   []model.WalletBalance
	Fiat     []model.WalletBalance
	NoAssets bool
	NoFiat   bool
}

// NonZero returns a copy with zero-balance wallets removed. Summaries shown
// to users hide empty wallets; the gateway itself always returns them.
func (p *Portfolio) NonZero() *Portfolio {
	return &Portfolio{
		Assets:   filterWallets(p.Assets, func(w model.WalletBalance) bool { return !w.IsZero() }),
		Fiat:     filterWallets(p.Fiat, func(w model.WalletBalance) bool { return !w.IsZero() }),
		NoAssets: p.NoAssets,
		NoFiat:   p.NoFiat,
	}
}

// BySymbol returns the wallets of either kind whose symbol matches, ignoring case.
func (p *Portfolio) BySymbol(symbol string) []model.WalletBalance {
	match := func(w model.WalletBalance) bool { return w.MatchesSymbol(symbol) }
	return append(filterWallets(p.Assets, match), filterWallets(p.Fiat, match)...)
}

func filterWallets(in []model.WalletBalance, keep func(model.WalletBalance) bool) []model.WalletBalance {
	var out []model.WalletBalance
	for _, w := range in {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// PortfolioService links chat users to their account API key and answers
// balance queries. It depends only on port interfaces.
type PortfolioService struct {
	credentials driven.CredentialStore
	gateway     driven.BalanceGateway
	chatUsers   driven.ChatUserStore
	now         func() time.Time
}

// NewPortfolioService creates a new PortfolioService with the required dependencies.
func NewPortfolioService(credentials driven.CredentialStore, gateway driven.BalanceGateway, chatUsers driven.ChatUserStore) *PortfolioService {
	return &PortfolioService{
		credentials: credentials,
		gateway:     gateway,
		chatUsers:   chatUsers,
		now:         time.Now,
	}
}

// Greet records the user's first visit and returns the stored record.
// firstVisit is true only on the first call for a user.
func (s *PortfolioService) Greet(ctx context.Context, userID string) (*model.ChatUser, bool, error) {
	firstVisit, err := s.chatUsers.Touch(ctx, userID, s.now())
	if err != nil {
		return nil, false, err
	}

	user, err := s.chatUsers.Get(ctx, userID)
	if err != nil {
		return nil, firstVisit, err
	}
	return user, firstVisit, nil
}

// Login verifies apiKey with a read-only fiat query and stores it for userID.
// A key the platform rejects is not stored. Other verification failures are
// returned unchanged so the caller can ask the user to retry.
func (s *PortfolioService) Login(ctx context.Context, userID, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrEmptyAPIKey
	}

	if _, err := s.gateway.FetchFiatBalances(ctx, apiKey); err != nil && !errors.Is(err, driven.ErrNoFiat) {
		var upstreamErr *driven.UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.Unauthorized() {
			return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
		}
		return fmt.Errorf("verifying api key: %w", err)
	}

	return s.credentials.Set(ctx, userID, apiKey)
}

// Logout forgets the stored API key. Logging out twice is not an error.
func (s *PortfolioService) Logout(ctx context.Context, userID string) error {
	return s.credentials.Delete(ctx, userID)
}

// Balances loads the user's key and queries asset and fiat wallets concurrently.
// Returns driven.ErrCredentialNotFound if the user has not logged in.
func (s *PortfolioService) Balances(ctx context.Context, userID string) (*Portfolio, error) {
	apiKey, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var p Portfolio
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assets, err := s.gateway.FetchAssetBalances(gctx, apiKey)
		if errors.Is(err, driven.ErrNoAssets) {
			p.NoAssets = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("asset balances: %w", err)
		}
		p.Assets = assets
		return nil
	})

	g.Go(func() error {
		fiat, err := s.gateway.FetchFiatBalances(gctx, apiKey)
		if errors.Is(err, driven.ErrNoFiat) {
			p.NoFiat = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("fiat balances: %w", err)
		}
		p.Fiat = fiat
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &p, nil
}
