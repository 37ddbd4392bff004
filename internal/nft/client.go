// Package nft lists the trademark NFTs a wallet owns through the Alchemy NFT
// API and renders them as chat markdown.
package nft

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/upstream"
)

const maxPages = 5

var ErrInvalidOwner = apperr.Validation("invalid wallet address: expected 0x followed by 40 hex characters")

// Lister returns the NFTs an owner holds in the configured collection.
type Lister interface {
	OwnedBy(ctx context.Context, owner string) ([]NFT, error)
}

type AlchemyConfig struct {
	APIKey          string
	BaseURL         string
	ContractAddress string
	PageSize        int
	HTTPClient      *http.Client
}

type AlchemyClient struct {
	client   *upstream.Client
	apiKey   string
	contract string
	pageSize int
}

func NewAlchemyClient(cfg AlchemyConfig) *AlchemyClient {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	return &AlchemyClient{
		client:   upstream.NewClient("alchemy", cfg.BaseURL, cfg.HTTPClient, nil).WithRedaction(apiKey),
		apiKey:   apiKey,
		contract: cfg.ContractAddress,
		pageSize: cfg.PageSize,
	}
}

func (c *AlchemyClient) Configured() bool {
	return c.apiKey != ""
}

func (c *AlchemyClient) OwnedBy(ctx context.Context, owner string) ([]NFT, error) {
	ctx, span := otel.Tracer("github.com/joelkehle/mark3/internal/nft").Start(ctx, "nft.OwnedBy")
	defer span.End()

	if len(owner) != 42 {
		return nil, ErrInvalidOwner
	}
	if !c.Configured() {
		return nil, apperr.NotConfigured("NFT indexing")
	}

	var out []NFT
	pageKey := ""
	for page := 0; page < maxPages; page++ {
		var resp ownedNFTsResponse
		if err := c.client.GetJSON(ctx, c.ownedPath(owner, pageKey), &resp); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "alchemy request failed")
			return nil, classify(err)
		}
		out = append(out, resp.OwnedNFTs...)
		if resp.PageKey == "" {
			break
		}
		pageKey = resp.PageKey
	}
	span.SetAttributes(attribute.Int("nft.count", len(out)))
	return out, nil
}

func (c *AlchemyClient) ownedPath(owner, pageKey string) string {
	q := url.Values{}
	q.Set("owner", owner)
	q.Add("contractAddresses[]", c.contract)
	q.Set("withMetadata", "true")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if pageKey != "" {
		q.Set("pageKey", pageKey)
	}
	return "/nft/v3/" + url.PathEscape(c.apiKey) + "/getNFTsForOwner?" + q.Encode()
}

func classify(err error) error {
	var se *upstream.StatusError
	if errors.As(err, &se) && se.Status == http.StatusTooManyRequests {
		return apperr.RateLimited("the NFT service is rate limiting requests", 0, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	ae := apperr.Upstream("could not fetch NFTs", err)
	if se != nil {
		ae.Transient = se.Transient()
	}
	return ae
}
