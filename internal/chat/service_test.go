package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/assistant"
	"github.com/joelkehle/mark3/internal/intent"
	"github.com/joelkehle/mark3/internal/nft"
)

const wallet = "0x1234567890123456789012345678901234567890"

type fakeCompleter struct {
	reply   string
	err     error
	calls   int
	history []assistant.Message
	message string
}

func (f *fakeCompleter) Complete(ctx context.Context, history []assistant.Message, message string) (string, error) {
	f.calls++
	f.history, f.message = history, message
	return f.reply, f.err
}

type fakeLister struct {
	nfts  []nft.NFT
	err   error
	owner string
}

func (f *fakeLister) OwnedBy(ctx context.Context, owner string) ([]nft.NFT, error) {
	f.owner = owner
	return f.nfts, f.err
}

func TestReplyRequiresMessage(t *testing.T) {
	_, err := NewService(&fakeCompleter{}, nil, nil).Reply(context.Background(), Request{Message: "   "})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
}

func TestReplyPlainChat(t *testing.T) {
	c := &fakeCompleter{reply: "Trademarks protect brands."}
	history := []assistant.Message{{Role: "user", Content: "hi"}}
	out, err := NewService(c, nil, nil).Reply(context.Background(), Request{Message: "what is a trademark?", History: history})
	require.NoError(t, err)
	assert.Equal(t, "Trademarks protect brands.", out.Response)
	assert.Empty(t, out.Notice)
	assert.False(t, out.ShowRegistrationForm)
	assert.Equal(t, history, c.history)
	assert.Equal(t, "what is a trademark?", c.message)
}

func TestReplyRegistrationWithoutWalletShortCircuits(t *testing.T) {
	c := &fakeCompleter{reply: "unused"}
	out, err := NewService(c, nil, nil).Reply(context.Background(), Request{Message: "I want to register a trademark"})
	require.NoError(t, err)
	assert.Equal(t, NoticeWalletNotConnected, out.Notice)
	assert.Equal(t, "To register a trademark, you need to connect your wallet first. Please connect your wallet and try again.", out.Response)
	assert.Zero(t, c.calls)
	assert.True(t, out.Intent.WantsRegistration)
}

func TestReplyRegistrationUsesConnectedWallet(t *testing.T) {
	c := &fakeCompleter{reply: "Happy to help."}
	out, err := NewService(c, nil, nil).Reply(context.Background(), Request{Message: "I want to register my brand", ConnectedWallet: wallet})
	require.NoError(t, err)
	assert.True(t, out.ShowRegistrationForm)
	assert.Equal(t, wallet, out.WalletAddress)
	assert.True(t, strings.HasPrefix(out.Response, "Happy to help.\n\n## 🔗 Trademark Registration on Blockchain"))
	assert.Contains(t, out.Response, "Are you ready to proceed with the registration?")
}

func TestReplyClientFlagForcesRegistration(t *testing.T) {
	out, err := NewService(&fakeCompleter{reply: "ok"}, nil, nil).Reply(context.Background(), Request{
		Message: "hello", HasTransactionIntent: true, WalletAddress: wallet,
	})
	require.NoError(t, err)
	assert.True(t, out.ShowRegistrationForm)
}

func TestReplyListingWithoutAddress(t *testing.T) {
	cases := []struct {
		message string
		suffix  string
	}{
		{"show my nfts", `Example: "Show NFTs of 0x1234567890123456789012345678901234567890"`},
		{"show nfts of vitalik.eth", ensHintMessage},
		{"show nfts of 0xabc123", shortHintMessage},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			c := &fakeCompleter{}
			out, err := NewService(c, &fakeLister{}, nil).Reply(context.Background(), Request{Message: tc.message})
			require.NoError(t, err)
			assert.Equal(t, NoticeNoWalletAddress, out.Notice)
			assert.True(t, strings.HasPrefix(out.Response, "To view NFTs, you need to specify a wallet address in the message."))
			assert.True(t, strings.HasSuffix(out.Response, tc.suffix))
			assert.Zero(t, c.calls)
		})
	}
}

func TestReplyListingAppendsNFTs(t *testing.T) {
	lister := &fakeLister{nfts: []nft.NFT{{TokenID: "9", Name: "Acme", Contract: nft.Contract{Address: "0xc"}}}}
	out, err := NewService(&fakeCompleter{reply: "Here you go."}, lister, nil).Reply(context.Background(), Request{
		Message: "show nfts of " + wallet,
	})
	require.NoError(t, err)
	assert.Equal(t, wallet, lister.owner)
	assert.Equal(t, intent.HintFull, out.Intent.Hint)
	assert.Contains(t, out.Response, "## 🎨 NFT Query for wallet 0x1234...7890")
	assert.Contains(t, out.Response, "## 🎨 Your NFTs (1 found)")
	assert.Contains(t, out.Response, "### Acme (ID: 9)")
	assert.Equal(t, wallet, out.WalletAddress)
}

func TestReplyListingPrefersRequestWallet(t *testing.T) {
	other := "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	lister := &fakeLister{}
	_, err := NewService(&fakeCompleter{reply: "ok"}, lister, nil).Reply(context.Background(), Request{
		Message: "nfts of " + wallet, WalletAddress: other,
	})
	require.NoError(t, err)
	assert.Equal(t, other, lister.owner)
}

func TestReplyListingFetchFailure(t *testing.T) {
	lister := &fakeLister{err: apperr.Upstream("could not fetch NFTs", errors.New("502"))}
	out, err := NewService(&fakeCompleter{reply: "ok"}, lister, nil).Reply(context.Background(), Request{Message: "my nfts", WalletAddress: wallet})
	require.NoError(t, err)
	assert.Contains(t, out.Response, nftFetchFailedMessage)
}

func TestReplyListingNotConfigured(t *testing.T) {
	out, err := NewService(&fakeCompleter{reply: "ok"}, nil, nil).Reply(context.Background(), Request{Message: "my nfts", WalletAddress: wallet})
	require.NoError(t, err)
	assert.Contains(t, out.Response, nftNotConfiguredMessage)
}

func TestReplyEmptyCompletion(t *testing.T) {
	out, err := NewService(&fakeCompleter{reply: "  "}, nil, nil).Reply(context.Background(), Request{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, emptyCompletionMessage, out.Response)
}

func TestReplyCompletionErrorPropagates(t *testing.T) {
	_, err := NewService(&fakeCompleter{err: apperr.NotConfigured("the assistant")}, nil, nil).Reply(context.Background(), Request{Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotConfigured, apperr.From(err).Code)
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234...7890", shortAddress(wallet))
	assert.Equal(t, "0x12", shortAddress("0x12"))
}
