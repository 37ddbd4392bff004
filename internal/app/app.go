// Package app wires the configured components shared by the server and the
// command-line tool.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/assistant"
	"github.com/joelkehle/mark3/internal/chat"
	"github.com/joelkehle/mark3/internal/config"
	"github.com/joelkehle/mark3/internal/httpapi"
	"github.com/joelkehle/mark3/internal/ipfs"
	"github.com/joelkehle/mark3/internal/nft"
	"github.com/joelkehle/mark3/internal/registration"
	"github.com/joelkehle/mark3/internal/render"
	"github.com/joelkehle/mark3/internal/status"
)

type Components struct {
	Config       config.Config
	Logger       *zap.Logger
	Assistant    assistant.Completer
	Alchemy      *nft.AlchemyClient
	NFTs         *nft.CachedLister
	Pinata       *ipfs.PinataClient
	Registration *registration.Preparer
	Status       *status.Checker
	Chat         *chat.Service
	PDF          *render.ChromiumPDFRenderer
}

// Build constructs every component from cfg. Missing credentials do not fail
// the build; the affected features answer with a not-configured error.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	llm, err := assistant.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build assistant: %w", err)
	}

	alchemy := nft.NewAlchemyClient(nft.AlchemyConfig{
		APIKey:          cfg.Alchemy.APIKey,
		BaseURL:         cfg.Alchemy.BaseURL,
		ContractAddress: cfg.Alchemy.ContractAddress,
		PageSize:        cfg.Alchemy.PageSize,
	})
	nfts := nft.NewCachedLister(alchemy, cfg.NFTCache.Size, cfg.NFTCache.TTL)

	pinata := ipfs.NewPinataClient(ipfs.Config{
		JWT:        cfg.Pinata.JWT,
		APIKey:     cfg.Pinata.APIKey,
		SecretKey:  cfg.Pinata.SecretKey,
		BaseURL:    cfg.Pinata.BaseURL,
		GatewayURL: cfg.Pinata.GatewayURL,
	})

	var pinger assistant.Pinger
	if p, ok := llm.(assistant.Pinger); ok {
		pinger = p
	}

	c := &Components{
		Config:       cfg,
		Logger:       logger,
		Assistant:    llm,
		Alchemy:      alchemy,
		NFTs:         nfts,
		Pinata:       pinata,
		Registration: registration.NewPreparer(pinata, cfg.Network(), cfg.SPGNFTContract()),
		Status:       status.NewChecker(cfg, pinger, pinata, nil, logger.Named("status")),
		Chat:         chat.NewService(llm, nfts, logger.Named("chat")),
		PDF:          render.NewChromiumPDFRenderer(),
	}

	logger.Info("components built",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLMModel()),
		zap.Bool("alchemy_configured", alchemy.Configured()),
		zap.Bool("pinata_configured", pinata.Configured()),
		zap.Bool("pdf_available", c.PDF.Available()),
		zap.String("network", cfg.Network().Name),
	)
	return c, nil
}

// Handler returns the HTTP API serving static files from webDir.
func (c *Components) Handler(webDir string) http.Handler {
	return httpapi.NewServer(httpapi.Deps{
		Chat:           c.Chat,
		NFTs:           c.NFTs,
		Registration:   c.Registration,
		Status:         c.Status,
		PDF:            c.PDF,
		Logger:         c.Logger.Named("http"),
		WebDir:         webDir,
		RequestTimeout: c.Config.Server.RequestTimeout,
		MaxUploadBytes: c.Config.Server.MaxUploadBytes,
	})
}
