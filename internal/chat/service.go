// Package chat answers chat messages: it classifies intent, gates requests
// that need a wallet, asks the assistant for a reply and appends the
// registration and NFT blocks.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/assistant"
	"github.com/joelkehle/mark3/internal/intent"
	"github.com/joelkehle/mark3/internal/nft"
	"github.com/joelkehle/mark3/internal/telemetry"
)

// Request is the chat-completion request body. ConnectedWallet is the
// address reported by the browser's wallet connection, if any.
type Request struct {
	Message              string              `json:"message"`
	History              []assistant.Message `json:"history"`
	HasTransactionIntent bool                `json:"hasTransactionIntent"`
	WantsToSeeNFTs       bool                `json:"wantsToSeeNFTs"`
	WalletAddress        string              `json:"walletAddress"`
	ConnectedWallet      string              `json:"connectedWallet"`
}

type Response struct {
	Response             string        `json:"response"`
	Notice               string        `json:"notice,omitempty"`
	ShowRegistrationForm bool          `json:"showRegistrationForm"`
	Intent               intent.Result `json:"intent"`
	WalletAddress        string        `json:"walletAddress,omitempty"`
}

type Service struct {
	completer assistant.Completer
	nfts      nft.Lister
	logger    *zap.Logger
}

// NewService wires the chat service. nfts may be nil when NFT indexing is
// not configured.
func NewService(completer assistant.Completer, nfts nft.Lister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, nfts: nfts, logger: logger}
}

func (s *Service) Reply(ctx context.Context, req Request) (Response, error) {
	ctx, span := otel.Tracer("github.com/joelkehle/mark3/internal/chat").Start(ctx, "chat.Reply")
	defer span.End()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, apperr.Validation("Message is required")
	}

	res := intent.Classify(message)
	wantsRegistration := req.HasTransactionIntent || res.WantsRegistration
	wantsListing := req.WantsToSeeNFTs || res.WantsAssetListing
	recordIntent(wantsRegistration, wantsListing)
	span.SetAttributes(
		attribute.Bool("chat.registration", wantsRegistration),
		attribute.Bool("chat.listing", wantsListing),
		attribute.String("chat.address_hint", string(res.Hint)),
	)

	listingWallet := firstNonEmpty(req.WalletAddress, res.Address)
	registrationWallet := firstNonEmpty(res.Address, req.WalletAddress, req.ConnectedWallet)
	out := Response{Intent: res}

	if wantsRegistration && registrationWallet == "" {
		telemetry.ChatNotices.WithLabelValues(NoticeWalletNotConnected).Inc()
		out.Notice = NoticeWalletNotConnected
		out.Response = walletNotConnectedMessage
		return out, nil
	}
	if wantsListing && listingWallet == "" {
		telemetry.ChatNotices.WithLabelValues(NoticeNoWalletAddress).Inc()
		out.Notice = NoticeNoWalletAddress
		out.Response = noWalletAddressNotice(res.Hint)
		return out, nil
	}

	reply, err := s.completer.Complete(ctx, req.History, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Error("chat: completion failed", zap.Error(err))
		return Response{}, err
	}
	if strings.TrimSpace(reply) == "" {
		reply = emptyCompletionMessage
	}

	var b strings.Builder
	b.WriteString(reply)
	if wantsRegistration {
		b.WriteString(registrationBlock)
		out.ShowRegistrationForm = true
		out.WalletAddress = registrationWallet
	}
	if wantsListing {
		fmt.Fprintf(&b, nftBlockTemplate, shortAddress(listingWallet), s.nftSection(ctx, listingWallet))
		if out.WalletAddress == "" {
			out.WalletAddress = listingWallet
		}
	}
	out.Response = b.String()
	return out, nil
}

// nftSection renders the wallet's NFTs, or a readable failure line.
func (s *Service) nftSection(ctx context.Context, owner string) string {
	if s.nfts == nil {
		return nftNotConfiguredMessage
	}
	nfts, err := s.nfts.OwnedBy(ctx, owner)
	if err != nil {
		s.logger.Warn("chat: nft lookup failed", zap.String("owner", owner), zap.Error(err))
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Code == apperr.CodeNotConfigured {
			return nftNotConfiguredMessage
		}
		return nftFetchFailedMessage
	}
	return nft.FormatList(nfts)
}

func noWalletAddressNotice(hint intent.AddressHint) string {
	switch hint {
	case intent.HintENS:
		return noWalletAddressMessage + " " + ensHintMessage
	case intent.HintShort:
		return noWalletAddressMessage + " " + shortHintMessage
	default:
		return noWalletAddressMessage
	}
}

func recordIntent(registration, listing bool) {
	switch {
	case registration && listing:
		telemetry.IntentsDetected.WithLabelValues("registration").Inc()
		telemetry.IntentsDetected.WithLabelValues("listing").Inc()
	case registration:
		telemetry.IntentsDetected.WithLabelValues("registration").Inc()
	case listing:
		telemetry.IntentsDetected.WithLabelValues("listing").Inc()
	default:
		telemetry.IntentsDetected.WithLabelValues("none").Inc()
	}
}

// shortAddress renders 0x1234...abcd.
func shortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
