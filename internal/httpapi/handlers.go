package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/chat"
	"github.com/joelkehle/mark3/internal/intent"
	"github.com/joelkehle/mark3/internal/nft"
	"github.com/joelkehle/mark3/internal/registration"
	"github.com/joelkehle/mark3/internal/render"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, apperr.NotFound("not found"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent.Classify(req.Message))
}

func (s *Server) handleNFTs(w http.ResponseWriter, r *http.Request) {
	if s.nfts == nil {
		s.writeError(w, r, apperr.NotConfigured("NFT indexing"))
		return
	}
	owner := strings.TrimSpace(chi.URLParam(r, "address"))
	if len(owner) != 42 || !common.IsHexAddress(owner) {
		s.writeError(w, r, nft.ErrInvalidOwner)
		return
	}
	nfts, err := s.nfts.OwnedBy(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  owner,
		"count":    len(nfts),
		"nfts":     nft.Records(nfts),
		"markdown": nft.FormatList(nfts),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.registration == nil {
		s.writeError(w, r, apperr.NotConfigured("IPFS pinning"))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, r, apperr.PayloadTooLarge("image is too large"))
			return
		}
		s.writeError(w, r, apperr.Validation("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		s.writeError(w, r, apperr.Validation("could not read the uploaded file"))
		return
	}
	head = head[:n]
	if n == 0 {
		s.writeError(w, r, apperr.Validation("uploaded file is empty"))
		return
	}
	if ct := http.DetectContentType(head); !strings.HasPrefix(ct, "image/") {
		s.writeError(w, r, apperr.Validation("only image uploads are supported"))
		return
	}

	up, err := s.registration.UploadImage(r.Context(), hdr.Filename, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("image pinned", zap.String("request_id", requestIDFrom(r.Context())), zap.String("cid", up.IpfsHash))
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	if s.registration == nil {
		s.writeError(w, r, apperr.NotConfigured("IPFS pinning"))
		return
	}
	var form registration.Form
	if err := decodeJSON(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	prepared, err := s.registration.Prepare(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prepared)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Check(r.Context()))
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "pdf" {
		s.writeError(w, r, apperr.Validation("format must be html or pdf"))
		return
	}
	var t render.Transcript
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(t.Messages) == 0 {
		s.writeError(w, r, apperr.Validation("transcript has no messages"))
		return
	}
	doc, err := render.TranscriptHTML(t, s.styleCSS)
	if err != nil {
		s.writeError(w, r, apperr.Internal("could not render the transcript", err))
		return
	}
	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, doc)
		return
	}

	if s.pdf == nil {
		s.writeError(w, r, apperr.NotConfigured("PDF rendering"))
		return
	}
	pdf, err := s.pdf.Render(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, apperr.Unavailable("failed to render pdf", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(t.Title)+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleNotFound(w, r)
		return
	}
	// Prevent stale frontend bundles from breaking the UI after deploys.
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		http.ServeFile(w, r, filepath.Join(s.webDir, "index.html"))
		return
	}
	clean := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
	if _, err := fs.Stat(os.DirFS(s.webDir), clean); err == nil {
		http.ServeFile(w, r, filepath.Join(s.webDir, clean))
		return
	}
	s.handleNotFound(w, r)
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "mark3-conversation"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
}
