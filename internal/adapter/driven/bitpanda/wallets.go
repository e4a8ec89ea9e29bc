package bitpanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/pandabot/internal/domain/model"
	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// assetWalletsResponse mirrors GET /asset-wallets. Categories are kept raw
// because the API mixes container shapes under data.attributes.
type assetWalletsResponse struct {
	Data *struct {
		Attributes map[string]json.RawMessage `json:"attributes"`
	} `json:"data"`
}

// walletContainer is the part of a category value that may carry a wallet list.
type walletContainer struct {
	Attributes json.RawMessage `json:"attributes"`
}

type walletList struct {
	Wallets json.RawMessage `json:"wallets"`
}

type assetWallet struct {
	ID         string `json:"id"`
	Attributes struct {
		Name             string           `json:"name"`
		CryptocoinSymbol string           `json:"cryptocoin_symbol"`
		Balance          *decimal.Decimal `json:"balance"`
	} `json:"attributes"`
}

// fiatWalletsResponse mirrors GET /fiatwallets.
type fiatWalletsResponse struct {
	Data *[]fiatWallet `json:"data"`
}

type fiatWallet struct {
	ID         string `json:"id"`
	Attributes struct {
		Name       string           `json:"name"`
		FiatSymbol string           `json:"fiat_symbol"`
		Balance    *decimal.Decimal `json:"balance"`
	} `json:"attributes"`
}

// FetchAssetBalances retrieves every asset wallet and flattens them across
// categories. Categories without a wallet list are skipped; they are normal.
// Categories are walked in name order so the result is stable.
func (c *Client) FetchAssetBalances(ctx context.Context, apiKey string) ([]model.WalletBalance, error) {
	var resp assetWalletsResponse
	if err := c.get(ctx, assetWalletsEndpoint, apiKey, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Attributes == nil {
		return nil, fmt.Errorf("%s: missing data.attributes: %w", assetWalletsEndpoint, driven.ErrMalformedResponse)
	}

	categories := make([]string, 0, len(resp.Data.Attributes))
	for name := range resp.Data.Attributes {
		categories = append(categories, name)
	}
	slices.Sort(categories)

	var balances []model.WalletBalance
	for _, category := range categories {
		wallets, ok, err := decodeWalletList(resp.Data.Attributes[category])
		if err != nil {
			return nil, fmt.Errorf("%s category %q: %w: %w", assetWalletsEndpoint, category, driven.ErrMalformedResponse, err)
		}
		if !ok {
			continue
		}

		for _, w := range wallets {
			if w.Attributes.Balance == nil {
				return nil, fmt.Errorf("%s category %q wallet %q: missing balance: %w",
					assetWalletsEndpoint, category, w.ID, driven.ErrMalformedResponse)
			}
			balances = append(balances, model.WalletBalance{
				Category: category,
				WalletID: w.ID,
				Name:     w.Attributes.Name,
				Symbol:   w.Attributes.CryptocoinSymbol,
				Balance:  *w.Attributes.Balance,
			})
		}
	}

	if len(balances) == 0 {
		return nil, driven.ErrNoAssets
	}
	return balances, nil
}

// FetchFiatBalances retrieves every fiat wallet, one WalletBalance each.
func (c *Client) FetchFiatBalances(ctx context.Context, apiKey string) ([]model.WalletBalance, error) {
	var resp fiatWalletsResponse
	if err := c.get(ctx, fiatWalletsEndpoint, apiKey, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s: missing data: %w", fiatWalletsEndpoint, driven.ErrMalformedResponse)
	}

	wallets := *resp.Data
	if len(wallets) == 0 {
		return nil, driven.ErrNoFiat
	}

	balances := make([]model.WalletBalance, 0, len(wallets))
	for _, w := range wallets {
		if w.Attributes.Balance == nil {
			return nil, fmt.Errorf("%s wallet %q: missing balance: %w", fiatWalletsEndpoint, w.ID, driven.ErrMalformedResponse)
		}
		balances = append(balances, model.WalletBalance{
			Category: model.CategoryFiat,
			WalletID: w.ID,
			Name:     w.Attributes.Name,
			Symbol:   w.Attributes.FiatSymbol,
			Balance:  *w.Attributes.Balance,
		})
	}
	return balances, nil
}

// decodeWalletList extracts attributes.wallets from a category value.
// ok is false when the value does not expose a wallet list at all.
func decodeWalletList(raw json.RawMessage) ([]assetWallet, bool, error) {
	if !isJSONKind(raw, '{') {
		return nil, false, nil
	}

	var container walletContainer
	if err := json.Unmarshal(raw, &container); err != nil {
		return nil, false, err
	}
	if !isJSONKind(container.Attributes, '{') {
		return nil, false, nil
	}

	var list walletList
	if err := json.Unmarshal(container.Attributes, &list); err != nil {
		return nil, false, err
	}
	if !isJSONKind(list.Wallets, '[') {
		return nil, false, nil
	}

	var wallets []assetWallet
	if err := json.Unmarshal(list.Wallets, &wallets); err != nil {
		return nil, false, err
	}
	return wallets, true, nil
}

// isJSONKind reports whether raw starts with the given delimiter ('{' or '[').
func isJSONKind(raw json.RawMessage, delim byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == delim
}
