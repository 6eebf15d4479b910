package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/assets"
)

// Response texts shown to form users.
const (
	msgNotWhitelisted = "This app does not support downloading PDFs from this domain."
	msgCaptureFailed  = "Error generating PDF."
	msgLoggedIn       = "Logged in successfully!"
	msgMissingURL     = "Missing URL."
	msgInvalidURL     = "Invalid URL."
	msgTooMany        = "Too many requests, try again later."
)

var (
	indexForm = &assets.Form{
		Action:      "/",
		Field:       "url",
		Label:       "Page URL",
		Placeholder: "https://example.com/report",
		Submit:      "Download PDF",
	}
	loginForm = &assets.Form{
		Action:      "/login",
		Field:       "login_url",
		Label:       "Login link",
		Placeholder: "https://example.com/magic-link?token=...",
		Submit:      "Log in",
	}
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, assets.PageIndex, assets.PageData{Title: "web2pdf", Form: indexForm})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, assets.PageLogin, assets.PageData{Title: "web2pdf login", Form: loginForm})
}

func (s *Server) render(w http.ResponseWriter, page string, data assets.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, page, data); err != nil {
		s.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.FormValue("url"))
	if target == "" {
		http.Error(w, msgMissingURL, http.StatusBadRequest)
		return
	}
	if _, err := web2pdf.DomainOf(target); err != nil {
		http.Error(w, msgInvalidURL, http.StatusBadRequest)
		return
	}
	if s.allow != nil && !s.allow.Allows(target) {
		s.logger.Info("domain not whitelisted", zap.String("url", target))
		http.Error(w, msgNotWhitelisted, http.StatusForbidden)
		return
	}

	res := s.svc.Capture(r.Context(), target)
	if res.Err != nil {
		if errors.Is(res.Err, web2pdf.ErrInvalidURL) {
			http.Error(w, msgInvalidURL, http.StatusBadRequest)
			return
		}
		s.logger.Warn("capture failed", zap.String("url", target), zap.Error(res.Err))
		http.Error(w, msgCaptureFailed, http.StatusInternalServerError)
		return
	}
	s.sendPDF(w, r, res.Path, res.File)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	loginURL := strings.TrimSpace(r.FormValue("login_url"))
	if loginURL == "" {
		http.Error(w, msgMissingURL, http.StatusBadRequest)
		return
	}

	if err := s.svc.EstablishSession(r.Context(), loginURL); err != nil {
		s.logger.Warn("login failed", zap.String("url", loginURL), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, web2pdf.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	// Browsers posting the form get the login page back with the result;
	// scripts get the bare message.
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		s.render(w, assets.PageLogin, assets.PageData{Title: "web2pdf login", Message: msgLoggedIn, Form: loginForm})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(msgLoggedIn))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid file name.", http.StatusBadRequest)
		return
	}
	s.sendPDF(w, r, filepath.Join(s.svc.OutputDir(), name), name)
}

// sendPDF streams the file at path as an attachment named name.
func (s *Server) sendPDF(w http.ResponseWriter, r *http.Request, path, name string) {
	f, err := os.Open(path) // #nosec G304 -- name validated, dir from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("opening pdf", zap.String("path", path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

type healthResponse struct {
	Status    string                  `json:"status"`
	Session   web2pdf.SessionStatus   `json:"session"`
	KeepAlive *web2pdf.KeepAliveState `json:"keep_alive,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Session: s.svc.Status()}
	if s.keepAlive != nil {
		st := s.keepAlive.State()
		resp.KeepAlive = &st
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}
