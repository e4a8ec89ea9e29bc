package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/pandabot/internal/domain/model"
)

// ErrNoAssets is returned by FetchAssetBalances when the account holds no
// asset wallets at all. It is an empty result, not a failure.
var ErrNoAssets = errors.New("no assets found")

// ErrNoFiat is returned by FetchFiatBalances when the account holds no fiat
// wallets. It is an empty result, not a failure.
var ErrNoFiat = errors.New("no fiat balances found")

// ErrMalformedResponse is returned when a successful upstream response does
// not carry the expected structure.
var ErrMalformedResponse = errors.New("malformed upstream response")

// UpstreamError reports a failed call to the account API. StatusCode is zero
// when no HTTP response was received.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("upstream %s: HTTP %d", e.Endpoint, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the upstream rejected the API key.
func (e *UpstreamError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// BalanceGateway defines the driven port for read-only balance queries
// against the account platform. apiKey is the decrypted user secret.
type BalanceGateway interface {
	// FetchAssetBalances returns one WalletBalance per asset wallet across all
	// categories. Returns ErrNoAssets when the flattened list is empty.
	FetchAssetBalances(ctx context.Context, apiKey string) ([]model.WalletBalance, error)

	// FetchFiatBalances returns one WalletBalance per fiat wallet.
	// Returns ErrNoFiat when the account has no fiat wallets.
	FetchFiatBalances(ctx context.Context, apiKey string) ([]model.WalletBalance, error)
}
