// Package ipfs pins trademark images and metadata documents through the
// Pinata API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/upstream"
)

const tracerName = "github.com/joelkehle/mark3/internal/ipfs"

// Pin is Pinata's answer to a pin request.
type Pin struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pinner stores content on IPFS and returns its CID.
type Pinner interface {
	PinFile(ctx context.Context, name string, r io.Reader) (Pin, error)
	PinJSON(ctx context.Context, name string, v any) (Pin, error)
}

type Config struct {
	JWT        string
	APIKey     string
	SecretKey  string
	BaseURL    string
	GatewayURL string
	HTTPClient *http.Client
}

type PinataClient struct {
	client     *upstream.Client
	gatewayURL string
	configured bool
}

// NewPinataClient prefers JWT auth and falls back to the legacy key pair.
func NewPinataClient(cfg Config) *PinataClient {
	headers := map[string]string{}
	jwt := strings.TrimSpace(cfg.JWT)
	switch {
	case jwt != "":
		headers["Authorization"] = "Bearer " + jwt
	case cfg.APIKey != "" && cfg.SecretKey != "":
		headers["pinata_api_key"] = cfg.APIKey
		headers["pinata_secret_api_key"] = cfg.SecretKey
	}
	gateway := cfg.GatewayURL
	if gateway != "" && !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &PinataClient{
		client:     upstream.NewClient("pinata", cfg.BaseURL, cfg.HTTPClient, headers),
		gatewayURL: gateway,
		configured: len(headers) > 0,
	}
}

func (c *PinataClient) Configured() bool {
	return c.configured
}

// PinFile uploads r as a multipart file named name.
func (c *PinataClient) PinFile(ctx context.Context, name string, r io.Reader) (Pin, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ipfs.PinFile")
	defer span.End()
	if !c.configured {
		return Pin{}, apperr.NotConfigured("IPFS pinning")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return Pin{}, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Pin{}, fmt.Errorf("read upload: %w", err)
	}
	meta, err := json.Marshal(pinataMetadata{Name: name})
	if err != nil {
		return Pin{}, err
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return Pin{}, err
	}
	if err := mw.Close(); err != nil {
		return Pin{}, err
	}
	span.SetAttributes(attribute.Int("ipfs.upload_bytes", body.Len()))

	blob, _, err := c.client.Do(ctx, http.MethodPost, "/pinning/pinFileToIPFS", &body, mw.FormDataContentType(), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pin file failed")
		return Pin{}, classify(err)
	}
	return decodePin(blob)
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinJSONRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

// PinJSON pins v as a JSON document.
func (c *PinataClient) PinJSON(ctx context.Context, name string, v any) (Pin, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ipfs.PinJSON")
	defer span.End()
	if !c.configured {
		return Pin{}, apperr.NotConfigured("IPFS pinning")
	}

	var pin Pin
	req := pinJSONRequest{PinataContent: v, PinataMetadata: pinataMetadata{Name: name}}
	if err := c.client.DoJSON(ctx, http.MethodPost, "/pinning/pinJSONToIPFS", req, &pin); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pin json failed")
		return Pin{}, classify(err)
	}
	if pin.IpfsHash == "" {
		return Pin{}, apperr.Upstream("pinning service returned no CID", nil)
	}
	return pin, nil
}

// TestAuthentication checks the configured credentials.
func (c *PinataClient) TestAuthentication(ctx context.Context) error {
	if !c.configured {
		return apperr.NotConfigured("IPFS pinning")
	}
	if err := c.client.GetJSON(ctx, "/data/testAuthentication", nil); err != nil {
		return classify(err)
	}
	return nil
}

// GatewayURL is the public HTTP link for cid.
func (c *PinataClient) GatewayURL(cid string) string {
	if c.gatewayURL == "" {
		return URI(cid)
	}
	return c.gatewayURL + cid
}

// URI is the ipfs:// form of cid used inside on-chain metadata.
func URI(cid string) string {
	return "ipfs://" + cid
}

func decodePin(blob []byte) (Pin, error) {
	var pin Pin
	if err := json.Unmarshal(blob, &pin); err != nil {
		return Pin{}, apperr.Upstream("pinning service returned an unreadable response", err)
	}
	if pin.IpfsHash == "" {
		return Pin{}, apperr.Upstream("pinning service returned no CID", nil)
	}
	return pin, nil
}

func classify(err error) error {
	var se *upstream.StatusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			ae := apperr.Upstream("the pinning service rejected the credentials", err)
			ae.Transient = false
			return ae
		case http.StatusTooManyRequests:
			return apperr.RateLimited("the pinning service is rate limiting requests", 30*time.Second, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	ae := apperr.Upstream("could not pin content to IPFS", err)
	if se != nil {
		ae.Transient = se.Transient()
	}
	return ae
}
