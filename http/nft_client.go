package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	gasless "github.com/gasless-nft/relay"
	"github.com/gasless-nft/relay/mechanisms/evm"
)

const (
	nftPageSize    = 100
	maxNFTPages    = 50
	defaultNFTWait = 30 * time.Second
)

// NFTIndex lists the NFTs a wallet owns
type NFTIndex interface {
	OwnedNFTs(ctx context.Context, owner string) ([]gasless.OwnedNFT, error)
}

// NFTClient reads owned tokens from the Alchemy NFT API (v3)
type NFTClient struct {
	baseURL   string
	contracts []string
	client    *resty.Client
}

// NFTClientConfig holds optional overrides for NFTClient
type NFTClientConfig struct {
	// BaseURL replaces the network's index URL, API key included
	BaseURL string

	// HTTPClient replaces the underlying transport client
	HTTPClient *http.Client

	// Timeout per page request (default 30s)
	Timeout time.Duration
}

// NewNFTClient creates an index client for network, filtered to the given contracts
func NewNFTClient(network string, apiKey string, contracts []string, config *NFTClientConfig) (*NFTClient, error) {
	baseURL := ""
	if config != nil && config.BaseURL != "" {
		baseURL = config.BaseURL
	} else {
		netCfg, err := evm.GetNetworkConfig(network)
		if err != nil {
			return nil, err
		}
		if netCfg.NFTIndexURL == "" {
			return nil, fmt.Errorf("no NFT index for network %s", network)
		}
		if apiKey == "" {
			return nil, fmt.Errorf("NFT index API key is required")
		}
		baseURL = netCfg.NFTIndexURL + apiKey
	}

	var client *resty.Client
	if config != nil && config.HTTPClient != nil {
		client = resty.NewWithClient(config.HTTPClient)
	} else {
		client = resty.New()
	}
	timeout := defaultNFTWait
	if config != nil && config.Timeout > 0 {
		timeout = config.Timeout
	}
	client.SetTimeout(timeout).SetHeader("Accept", "application/json")

	return &NFTClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		contracts: contracts,
		client:    client,
	}, nil
}

type alchemyOwnedNFTs struct {
	OwnedNfts []struct {
		Contract struct {
			Address string `json:"address"`
		} `json:"contract"`
		TokenID     string `json:"tokenId"`
		TokenType   string `json:"tokenType"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       struct {
			OriginalURL string `json:"originalUrl"`
			CachedURL   string `json:"cachedUrl"`
		} `json:"image"`
		Balance string `json:"balance"`
	} `json:"ownedNfts"`
	PageKey    string `json:"pageKey"`
	TotalCount int    `json:"totalCount"`
}

// OwnedNFTs returns every token owner holds in the configured contracts,
// following pageKey until the index reports no further pages
func (c *NFTClient) OwnedNFTs(ctx context.Context, owner string) ([]gasless.OwnedNFT, error) {
	if !evm.IsValidAddress(owner) {
		return nil, fmt.Errorf("invalid owner address: %q", owner)
	}

	var nfts []gasless.OwnedNFT
	pageKey := ""
	for page := 0; page < maxNFTPages; page++ {
		params := url.Values{}
		params.Set("owner", owner)
		params.Set("withMetadata", "true")
		params.Set("pageSize", fmt.Sprint(nftPageSize))
		for _, contract := range c.contracts {
			params.Add("contractAddresses[]", contract)
		}
		if pageKey != "" {
			params.Set("pageKey", pageKey)
		}

		var out alchemyOwnedNFTs
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			SetResult(&out).
			Get(c.baseURL + "/getNFTsForOwner")
		if err != nil {
			return nil, fmt.Errorf("failed to query NFT index: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("NFT index returned %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
		}

		for _, n := range out.OwnedNfts {
			image := n.Image.OriginalURL
			if image == "" {
				image = n.Image.CachedURL
			}
			nfts = append(nfts, gasless.OwnedNFT{
				Contract:    n.Contract.Address,
				TokenID:     n.TokenID,
				TokenType:   n.TokenType,
				Name:        n.Name,
				Description: n.Description,
				ImageURL:    image,
				Balance:     n.Balance,
			})
		}

		if out.PageKey == "" {
			return nfts, nil
		}
		pageKey = out.PageKey
	}

	return nil, fmt.Errorf("NFT index returned more than %d pages", maxNFTPages)
}
