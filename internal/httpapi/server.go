// Package httpapi exposes chat, intent classification, NFT listing,
// registration preparation, status and transcript rendering over HTTP.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/chat"
	"github.com/joelkehle/mark3/internal/nft"
	"github.com/joelkehle/mark3/internal/registration"
	"github.com/joelkehle/mark3/internal/render"
	"github.com/joelkehle/mark3/internal/status"
	"github.com/joelkehle/mark3/internal/telemetry"
)

const maxJSONBody = 1 << 20

type ChatReplier interface {
	Reply(ctx context.Context, req chat.Request) (chat.Response, error)
}

type RegistrationPreparer interface {
	Prepare(ctx context.Context, form registration.Form) (registration.Prepared, error)
	UploadImage(ctx context.Context, name string, r io.Reader) (registration.Upload, error)
}

type StatusChecker interface {
	Check(ctx context.Context) status.Report
}

// Deps are the components the server routes to. Nil NFTs, Registration or
// PDF make the matching endpoints answer not_configured.
type Deps struct {
	Chat           ChatReplier
	NFTs           nft.Lister
	Registration   RegistrationPreparer
	Status         StatusChecker
	PDF            render.PDFRenderer
	Logger         *zap.Logger
	WebDir         string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

type Server struct {
	chat           ChatReplier
	nfts           nft.Lister
	registration   RegistrationPreparer
	status         StatusChecker
	pdf            render.PDFRenderer
	logger         *zap.Logger
	webDir         string
	styleCSS       string
	requestTimeout time.Duration
	maxUploadBytes int64
}

func NewServer(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		chat:           d.Chat,
		nfts:           d.NFTs,
		registration:   d.Registration,
		status:         d.Status,
		pdf:            d.PDF,
		logger:         d.Logger,
		webDir:         d.WebDir,
		styleCSS:       render.LoadStyle(d.WebDir),
		requestTimeout: d.RequestTimeout,
		maxUploadBytes: d.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(telemetry.MetricsMiddleware)
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.MethodNotAllowed())
	})

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.timeout)
		r.With(limitBody(maxJSONBody)).Post("/chat", s.handleChat)
		r.With(limitBody(maxJSONBody)).Post("/classify", s.handleClassify)
		r.Get("/nfts/{address}", s.handleNFTs)
		r.With(limitBody(s.maxUploadBytes)).Post("/ipfs/upload", s.handleUpload)
		r.With(limitBody(maxJSONBody)).Post("/register/prepare", s.handlePrepare)
		r.Get("/status", s.handleStatus)
		r.With(limitBody(maxJSONBody)).Post("/transcript", s.handleTranscript)
	})

	if s.webDir != "" {
		r.Get("/*", s.handleRoot)
	}
	return r
}
