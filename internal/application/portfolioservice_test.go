package application_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pandabot/internal/application"
	"github.com/ericfisherdev/pandabot/internal/domain/model"
	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockCredentialStore struct {
	mu      sync.Mutex
	secrets map[string]string
	getErr  error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{secrets: map[string]string{}}
}

func (m *mockCredentialStore) Set(_ context.Context, userID, plaintext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[userID] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.secrets[userID]
	if !ok {
		return "", driven.ErrCredentialNotFound
	}
	return v, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, userID)
	return nil
}

type mockGateway struct {
	assets    []model.WalletBalance
	assetsErr error
	fiat      []model.WalletBalance
	fiatErr   error

	mu       sync.Mutex
	seenKeys []string
}

func (m *mockGateway) record(apiKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seenKeys = append(m.seenKeys, apiKey)
}

func (m *mockGateway) FetchAssetBalances(_ context.Context, apiKey string) ([]model.WalletBalance, error) {
	m.record(apiKey)
	return m.assets, m.assetsErr
}

func (m *mockGateway) FetchFiatBalances(_ context.Context, apiKey string) ([]model.WalletBalance, error) {
	m.record(apiKey)
	return m.fiat, m.fiatErr
}

type mockChatUserStore struct {
	seen     map[string]time.Time
	touchErr error
}

func (m *mockChatUserStore) Touch(_ context.Context, userID string, seenAt time.Time) (bool, error) {
	if m.touchErr != nil {
		return false, m.touchErr
	}
	if _, ok := m.seen[userID]; ok {
		return false, nil
	}
	m.seen[userID] = seenAt
	return true, nil
}

func (m *mockChatUserStore) Get(_ context.Context, userID string) (*model.ChatUser, error) {
	t, ok := m.seen[userID]
	if !ok {
		return nil, nil
	}
	return &model.ChatUser{UserID: userID, FirstSeen: t}, nil
}

func wallet(category, symbol, balance string) model.WalletBalance {
	return model.WalletBalance{
		Category: category,
		Name:     symbol + " Wallet",
		Symbol:   symbol,
		Balance:  decimal.RequireFromString(balance),
	}
}

func newService(creds *mockCredentialStore, gw *mockGateway) *application.PortfolioService {
	return application.NewPortfolioService(creds, gw, &mockChatUserStore{seen: map[string]time.Time{}})
}

// --- Tests ---

func TestPortfolioService_LoginStoresVerifiedKey(t *testing.T) {
	creds := newMockCredentialStore()
	gw := &mockGateway{fiatErr: driven.ErrNoFiat}
	svc := newService(creds, gw)

	err := svc.Login(context.Background(), "42", "  bp-key  ")

	require.NoError(t, err)
	assert.Equal(t, "bp-key", creds.secrets["42"])
	assert.Equal(t, []string{"bp-key"}, gw.seenKeys)
}

func TestPortfolioService_LoginRejectsUnauthorizedKey(t *testing.T) {
	creds := newMockCredentialStore()
	gw := &mockGateway{fiatErr: &driven.UpstreamError{Endpoint: "/fiatwallets", StatusCode: http.StatusUnauthorized}}
	svc := newService(creds, gw)

	err := svc.Login(context.Background(), "42", "bad-key")

	require.ErrorIs(t, err, application.ErrInvalidAPIKey)
	assert.Empty(t, creds.secrets)
}

func TestPortfolioService_LoginUpstreamDown(t *testing.T) {
	creds := newMockCredentialStore()
	gw := &mockGateway{fiatErr: &driven.UpstreamError{Endpoint: "/fiatwallets", StatusCode: http.StatusServiceUnavailable}}
	svc := newService(creds, gw)

	err := svc.Login(context.Background(), "42", "key")

	require.Error(t, err)
	assert.NotErrorIs(t, err, application.ErrInvalidAPIKey)
	var upstreamErr *driven.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.Empty(t, creds.secrets)
}

func TestPortfolioService_LoginEmptyKey(t *testing.T) {
	svc := newService(newMockCredentialStore(), &mockGateway{})

	err := svc.Login(context.Background(), "42", "   ")

	assert.ErrorIs(t, err, application.ErrEmptyAPIKey)
}

func TestPortfolioService_Logout(t *testing.T) {
	creds := newMockCredentialStore()
	creds.secrets["42"] = "bp-key"
	svc := newService(creds, &mockGateway{})

	require.NoError(t, svc.Logout(context.Background(), "42"))
	require.NoError(t, svc.Logout(context.Background(), "42"))

	_, err := svc.Balances(context.Background(), "42")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestPortfolioService_BalancesUsesStoredKey(t *testing.T) {
	creds := newMockCredentialStore()
	creds.secrets["42"] = "bp-key"
	gw := &mockGateway{
		assets: []model.WalletBalance{wallet("cryptocoin", "BTC", "0.5"), wallet("cryptocoin", "ETH", "0")},
		fiat:   []model.WalletBalance{wallet(model.CategoryFiat, "EUR", "10.00")},
	}
	svc := newService(creds, gw)

	p, err := svc.Balances(context.Background(), "42")

	require.NoError(t, err)
	assert.Len(t, p.Assets, 2)
	assert.Len(t, p.Fiat, 1)
	assert.False(t, p.NoAssets)
	assert.False(t, p.NoFiat)
	assert.ElementsMatch(t, []string{"bp-key", "bp-key"}, gw.seenKeys)
}

func TestPortfolioService_BalancesEmptyResults(t *testing.T) {
	creds := newMockCredentialStore()
	creds.secrets["42"] = "bp-key"
	gw := &mockGateway{assetsErr: driven.ErrNoAssets, fiatErr: driven.ErrNoFiat}
	svc := newService(creds, gw)

	p, err := svc.Balances(context.Background(), "42")

	require.NoError(t, err)
	assert.True(t, p.NoAssets)
	assert.True(t, p.NoFiat)
	assert.Nil(t, p.Assets)
	assert.Nil(t, p.Fiat)
}

func TestPortfolioService_BalancesUpstreamFailure(t *testing.T) {
	creds := newMockCredentialStore()
	creds.secrets["42"] = "bp-key"
	gw := &mockGateway{
		assetsErr: &driven.UpstreamError{Endpoint: "/asset-wallets", StatusCode: http.StatusUnauthorized},
		fiatErr:   driven.ErrNoFiat,
	}
	svc := newService(creds, gw)

	p, err := svc.Balances(context.Background(), "42")

	assert.Nil(t, p)
	var upstreamErr *driven.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
}

func TestPortfolioService_BalancesDecryptionFailure(t *testing.T) {
	creds := newMockCredentialStore()
	creds.getErr = errors.Join(driven.ErrDecryptionFailed, errors.New("gcm.Open: message authentication failed"))
	gw := &mockGateway{}
	svc := newService(creds, gw)

	_, err := svc.Balances(context.Background(), "42")

	require.ErrorIs(t, err, driven.ErrDecryptionFailed)
	assert.Empty(t, gw.seenKeys, "gateway must not be called without a key")
}

func TestPortfolioService_Greet(t *testing.T) {
	svc := newService(newMockCredentialStore(), &mockGateway{})

	user, first, err := svc.Greet(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, first)
	require.NotNil(t, user)
	assert.Equal(t, "42", user.UserID)
	firstSeen := user.FirstSeen

	user, first, err = svc.Greet(context.Background(), "42")
	require.NoError(t, err)
	assert.False(t, first)
	require.NotNil(t, user)
	assert.Equal(t, firstSeen, user.FirstSeen, "first-seen time must not move on later visits")
}

func TestPortfolioService_GreetTouchFailure(t *testing.T) {
	chatUsers := &mockChatUserStore{seen: map[string]time.Time{}, touchErr: errors.New("disk full")}
	svc := application.NewPortfolioService(newMockCredentialStore(), &mockGateway{}, chatUsers)

	user, first, err := svc.Greet(context.Background(), "42")

	require.Error(t, err)
	assert.False(t, first)
	assert.Nil(t, user)
}

func TestPortfolio_NonZeroAndBySymbol(t *testing.T) {
	p := &application.Portfolio{
		Assets: []model.WalletBalance{
			wallet("cryptocoin", "BTC", "0.5"),
			wallet("cryptocoin", "ETH", "0"),
			wallet("commodity", "XAU", "-0.1"),
		},
		Fiat: []model.WalletBalance{
			wallet(model.CategoryFiat, "EUR", "0.00"),
			wallet(model.CategoryFiat, "USD", "3.10"),
		},
	}

	nz := p.NonZero()
	require.Len(t, nz.Assets, 2)
	assert.Equal(t, "BTC", nz.Assets[0].Symbol)
	assert.Equal(t, "XAU", nz.Assets[1].Symbol)
	require.Len(t, nz.Fiat, 1)
	assert.Equal(t, "USD", nz.Fiat[0].Symbol)
	assert.Len(t, p.Assets, 3, "NonZero must not modify the receiver")

	assert.Len(t, p.BySymbol("btc"), 1)
	assert.Len(t, p.BySymbol(" eur "), 1)
	assert.Empty(t, p.BySymbol("DOGE"))
}
