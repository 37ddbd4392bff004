package nft

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/mark3/internal/apperr"
)

const owner = "0x1234567890123456789012345678901234567890"

func TestOwnedByBuildsAlchemyRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nft/v3/test-key/getNFTsForOwner", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, owner, q.Get("owner"))
		assert.Equal(t, []string{"0xa199Ee444d36674a0c7e27b79bc44ED546D50EbF"}, q["contractAddresses[]"])
		assert.Equal(t, "true", q.Get("withMetadata"))
		assert.Equal(t, "100", q.Get("pageSize"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ownedNfts": [{
				"contract": {"address": "0xa199Ee444d36674a0c7e27b79bc44ED546D50EbF"},
				"tokenId": "7",
				"name": "Acme Coffee",
				"description": "Roastery mark",
				"image": {"originalUrl": "ipfs://bafy-img"},
				"timeLastUpdated": "2025-03-04T10:00:00.000Z"
			}],
			"totalCount": 1
		}`))
	}))
	defer srv.Close()

	c := NewAlchemyClient(AlchemyConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		ContractAddress: "0xa199Ee444d36674a0c7e27b79bc44ED546D50EbF",
		HTTPClient:      srv.Client(),
	})
	nfts, err := c.OwnedBy(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, nfts, 1)
	assert.Equal(t, "7", nfts[0].TokenID)
	assert.Equal(t, "ipfs://bafy-img", nfts[0].ImageURL())
}

func TestOwnedByFollowsPageKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			assert.Empty(t, r.URL.Query().Get("pageKey"))
			_, _ = w.Write([]byte(`{"ownedNfts":[{"tokenId":"1","contract":{"address":"0xc"}}],"totalCount":"2","pageKey":"next"}`))
			return
		}
		assert.Equal(t, "next", r.URL.Query().Get("pageKey"))
		_, _ = w.Write([]byte(`{"ownedNfts":[{"tokenId":"2","contract":{"address":"0xc"}}],"totalCount":"2"}`))
	}))
	defer srv.Close()

	c := NewAlchemyClient(AlchemyConfig{APIKey: "k", BaseURL: srv.URL, ContractAddress: "0xc", HTTPClient: srv.Client()})
	nfts, err := c.OwnedBy(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, nfts, 2)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOwnedByRejectsBadOwnerWithoutCalling(t *testing.T) {
	c := NewAlchemyClient(AlchemyConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	_, err := c.OwnedBy(context.Background(), "0xabc")
	require.ErrorIs(t, err, ErrInvalidOwner)
}

func TestOwnedByNotConfigured(t *testing.T) {
	c := NewAlchemyClient(AlchemyConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := c.OwnedBy(context.Background(), owner)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotConfigured, apperr.From(err).Code)
}

func TestOwnedByUpstreamFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAlchemyClient(AlchemyConfig{APIKey: "sekret", BaseURL: srv.URL, ContractAddress: "0xc", HTTPClient: srv.Client()})
	_, err := c.OwnedBy(context.Background(), owner)
	require.Error(t, err)
	ae := apperr.From(err)
	assert.Equal(t, apperr.CodeUpstream, ae.Code)
	assert.NotContains(t, err.Error(), "sekret")
}

type countingLister struct {
	calls int
	nfts  []NFT
	err   error
}

func (l *countingLister) OwnedBy(ctx context.Context, owner string) ([]NFT, error) {
	l.calls++
	return l.nfts, l.err
}

func TestCachedListerCachesByLowercasedOwner(t *testing.T) {
	inner := &countingLister{nfts: []NFT{{TokenID: "1"}}}
	c := NewCachedLister(inner, 4, 0)

	first, err := c.OwnedBy(context.Background(), "0xABCDEFabcdef0123456789abcdef0123456789AB")
	require.NoError(t, err)
	second, err := c.OwnedBy(context.Background(), "0xabcdefabcdef0123456789abcdef0123456789ab")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedListerDoesNotCacheErrors(t *testing.T) {
	inner := &countingLister{err: errors.New("down")}
	c := NewCachedLister(inner, 4, 0)
	_, err := c.OwnedBy(context.Background(), owner)
	require.Error(t, err)
	_, err = c.OwnedBy(context.Background(), owner)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestOwnedByTransportErrorHidesKey(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	for _, key := range []string{"SUPERSECRETKEY123", "key/with+chars"} {
		c := NewAlchemyClient(AlchemyConfig{APIKey: key, BaseURL: base, ContractAddress: "0xc"})
		_, err := c.OwnedBy(context.Background(), owner)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), key)
		assert.NotContains(t, err.Error(), owner)
		assert.Equal(t, apperr.CodeUpstream, apperr.From(err).Code)
	}
}

func TestOwnedByTransientFollowsStatus(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewAlchemyClient(AlchemyConfig{APIKey: "k", BaseURL: srv.URL, ContractAddress: "0xc", HTTPClient: srv.Client()})
		_, err := c.OwnedBy(context.Background(), owner)
		srv.Close()

		ae := apperr.From(err)
		require.NotNil(t, ae, "status %d", tc.status)
		assert.Equal(t, apperr.CodeUpstream, ae.Code, "status %d", tc.status)
		assert.Equal(t, tc.transient, ae.Transient, "status %d", tc.status)
	}
}
