package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/chat"
	"github.com/joelkehle/mark3/internal/ipfs"
	"github.com/joelkehle/mark3/internal/nft"
	"github.com/joelkehle/mark3/internal/registration"
	"github.com/joelkehle/mark3/internal/status"
)

const wallet = "0x1234567890123456789012345678901234567890"

type fakeChat struct {
	resp chat.Response
	err  error
	got  chat.Request
}

func (f *fakeChat) Reply(ctx context.Context, req chat.Request) (chat.Response, error) {
	f.got = req
	return f.resp, f.err
}

type fakeLister struct {
	nfts []nft.NFT
	err  error
}

func (f fakeLister) OwnedBy(ctx context.Context, owner string) ([]nft.NFT, error) {
	return f.nfts, f.err
}

type fakePreparer struct {
	uploaded []byte
	name     string
}

func (f *fakePreparer) Prepare(ctx context.Context, form registration.Form) (registration.Prepared, error) {
	if err := form.Validate(); err != nil {
		return registration.Prepared{}, err
	}
	return registration.Prepared{IPMetadataURI: "ipfs://bafyip", ChainID: 1315}, nil
}

func (f *fakePreparer) UploadImage(ctx context.Context, name string, r io.Reader) (registration.Upload, error) {
	f.name = name
	f.uploaded, _ = io.ReadAll(r)
	return registration.Upload{Pin: ipfs.Pin{IpfsHash: "bafyimg"}, URI: "ipfs://bafyimg"}, nil
}

type fakeStatus struct{}

func (fakeStatus) Check(ctx context.Context) status.Report {
	return status.Report{Services: []status.Item{{Name: "Mark3 server", Status: status.StateSuccess}}}
}

type fakePDF struct{ err error }

func (f fakePDF) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 " + htmlDoc[:15]), nil
}

func newTestServer(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()
	d := Deps{
		Chat:         &fakeChat{resp: chat.Response{Response: "hi there"}},
		NFTs:         fakeLister{},
		Registration: &fakePreparer{},
		Status:       fakeStatus{},
		PDF:          fakePDF{},
	}
	if mutate != nil {
		mutate(&d)
	}
	return NewServer(d)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			blob, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(blob)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestChatForwardsRequest(t *testing.T) {
	fc := &fakeChat{resp: chat.Response{Response: "Hello!"}}
	h := newTestServer(t, func(d *Deps) { d.Chat = fc })

	rr := do(t, h, http.MethodPost, "/api/chat", map[string]any{
		"message":              "hello",
		"history":              []map[string]string{{"role": "user", "content": "earlier"}},
		"hasTransactionIntent": true,
		"walletAddress":        wallet,
		"connectedWallet":      wallet,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hello!", decodeBody(t, rr)["response"])
	assert.True(t, fc.got.HasTransactionIntent)
	assert.Equal(t, wallet, fc.got.ConnectedWallet)
	require.Len(t, fc.got.History, 1)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestChatErrorsUseErrorContract(t *testing.T) {
	h := newTestServer(t, func(d *Deps) {
		d.Chat = &fakeChat{err: apperr.Upstream("the assistant is unavailable right now", errors.New("503"))}
	})
	rr := do(t, h, http.MethodPost, "/api/chat", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "the assistant is unavailable right now", body["error"])
	assert.Equal(t, apperr.CodeUpstream, body["code"])
}

func TestChatRejectsBadJSON(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/chat", "{nope")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid JSON body", decodeBody(t, rr)["error"])
}

func TestChatRejectsOversizedBody(t *testing.T) {
	big := `{"message":"` + strings.Repeat("a", maxJSONBody+10) + `"}`
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/chat", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestClassify(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/classify", map[string]string{"message": "Show NFTs of " + wallet})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["wantsRegistration"])
	assert.Equal(t, true, body["wantsAssetListing"])
	assert.Equal(t, wallet, body["extractedAddress"])
	assert.Equal(t, "full", body["addressHint"])
}

func TestNFTs(t *testing.T) {
	h := newTestServer(t, func(d *Deps) {
		d.NFTs = fakeLister{nfts: []nft.NFT{{TokenID: "1", Name: "Acme", Contract: nft.Contract{Address: "0xc"}}}}
	})
	rr := do(t, h, http.MethodGet, "/api/nfts/"+wallet, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.EqualValues(t, 1, body["count"])
	assert.Contains(t, body["markdown"], "### Acme (ID: 1)")
	records := body["nfts"].([]any)
	assert.Equal(t, "Acme", records[0].(map[string]any)["name"])
}

func TestNFTsRejectsMalformedAddress(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodGet, "/api/nfts/0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apperr.CodeValidation, decodeBody(t, rr)["code"])
}

func TestNFTsRateLimitedSetsRetryAfter(t *testing.T) {
	h := newTestServer(t, func(d *Deps) {
		d.NFTs = fakeLister{err: apperr.RateLimited("slow down", 30*time.Second, nil)}
	})
	rr := do(t, h, http.MethodGet, "/api/nfts/"+wallet, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
}

func TestNFTsNotConfigured(t *testing.T) {
	h := newTestServer(t, func(d *Deps) { d.NFTs = nil })
	rr := do(t, h, http.MethodGet, "/api/nfts/"+wallet, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apperr.CodeNotConfigured, decodeBody(t, rr)["code"])
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/ipfs/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestUploadPinsImage(t *testing.T) {
	fp := &fakePreparer{}
	h := newTestServer(t, func(d *Deps) { d.Registration = fp })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartUpload(t, "logo.png", pngHeader))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "bafyimg", decodeBody(t, rr)["IpfsHash"])
	assert.Equal(t, "logo.png", fp.name)
	assert.Equal(t, pngHeader, fp.uploaded)
}

func TestUploadRejectsNonImage(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rr, multipartUpload(t, "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "only image uploads are supported", decodeBody(t, rr)["error"])
}

func TestUploadTooLarge(t *testing.T) {
	h := newTestServer(t, func(d *Deps) { d.MaxUploadBytes = 64 })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, multipartUpload(t, "big.png", append(pngHeader, make([]byte, 256)...)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestPrepareReportsFormErrors(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/register/prepare", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, apperr.CodeValidation, body["code"])
	assert.Equal(t, []any{
		"Description is required",
		"Author is required",
		"IPFS image ID is required",
		"Legal owner must be a wallet address",
	}, body["errors"])
}

func TestPrepareSuccess(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/register/prepare", map[string]string{
		"name": "Acme", "description": "d", "author": "a", "imageIpfsId": "bafy", "legalOwner": wallet,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "ipfs://bafyip", decodeBody(t, rr)["ipMetadataURI"])
}

func TestStatus(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Len(t, body["services"], 1)
}

var transcript = map[string]any{
	"title":    "Acme chat",
	"messages": []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "**hello**"}},
}

func TestTranscriptHTML(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/transcript", transcript)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<strong>hello</strong>")
}

func TestTranscriptPDF(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodPost, "/api/transcript?format=pdf", transcript)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Acme-chat.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))
}

func TestTranscriptPDFFailure(t *testing.T) {
	h := newTestServer(t, func(d *Deps) { d.PDF = fakePDF{err: errors.New("chrome missing")} })
	rr := do(t, h, http.MethodPost, "/api/transcript?format=pdf", transcript)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "failed to render pdf", decodeBody(t, rr)["error"])
}

func TestTranscriptValidation(t *testing.T) {
	h := newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/transcript?format=docx", transcript).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/transcript", map[string]any{"title": "x"}).Code)
}

func TestStaticFilesAndUnknownRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>mark3</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	h := newTestServer(t, func(d *Deps) { d.WebDir = dir })

	rr := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "mark3")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/app.js", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/missing.css", nil).Code)

	rr = do(t, h, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apperr.CodeNotFound, decodeBody(t, rr)["code"])
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(t, newTestServer(t, nil), http.MethodGet, "/api/chat", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, apperr.CodeMethodNotAllowed, decodeBody(t, rr)["code"])
}

func TestRecovererReturnsJSON(t *testing.T) {
	h := newTestServer(t, func(d *Deps) { d.Chat = panicChat{} })
	rr := do(t, h, http.MethodPost, "/api/chat", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apperr.CodeInternal, decodeBody(t, rr)["code"])
}

type panicChat struct{}

func (panicChat) Reply(context.Context, chat.Request) (chat.Response, error) {
	panic("boom")
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "8f14e45f-ceea-4c7a-9b1e-3f0e4f7c2a10")
	rr := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rr, req)
	assert.Equal(t, "8f14e45f-ceea-4c7a-9b1e-3f0e4f7c2a10", rr.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "not a uuid")
	rr = httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rr, req)
	assert.NotEqual(t, "not a uuid", rr.Header().Get("X-Request-ID"))
}
