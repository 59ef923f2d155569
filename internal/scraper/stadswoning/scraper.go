// Package stadswoning integrates the Stadswoning platform through its JSON
// API. Sessions are token-scoped: an anonymous session token is required for
// every call, including the public listing.
package stadswoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/scraper"
)

// Handle is the platform key this scraper serves.
const Handle = "stadswoning"

const defaultTimeout = 30 * time.Second

// Config carries the provider-specific settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Scraper implements port.Scraper against the Stadswoning API.
type Scraper struct {
	cfg     Config
	logger  *zap.Logger
	client  *http.Client
	session string
}

// New constructs the Stadswoning scraper.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Scraper{cfg: cfg, logger: logger.Named("stadswoning")}
}

// Handle returns the stable platform key.
func (s *Scraper) Handle() string {
	return Handle
}

type sessionResponse struct {
	Token string `json:"token"`
}

// StartSession obtains an anonymous session token.
func (s *Scraper) StartSession(ctx context.Context) error {
	s.client = &http.Client{Timeout: s.cfg.Timeout}

	var session sessionResponse
	if err := s.do(ctx, http.MethodPost, "/api/session", nil, &session); err != nil {
		s.client = nil
		return err
	}
	if session.Token == "" {
		s.client = nil
		return scraper.NewError(Handle, "start session", fmt.Errorf("empty session token"))
	}
	s.session = session.Token
	return nil
}

// EndSession invalidates the session token. Safe to call after a failed
// start.
func (s *Scraper) EndSession(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	defer func() {
		s.client.CloseIdleConnections()
		s.client = nil
		s.session = ""
	}()
	if s.session == "" {
		return nil
	}
	return s.do(ctx, http.MethodDelete, "/api/session", nil, nil)
}

// Login authenticates the session token as the given account.
func (s *Scraper) Login(ctx context.Context, identifier, credentials string) error {
	body := map[string]string{"identifier": identifier, "password": credentials}
	return s.do(ctx, http.MethodPost, "/api/session/login", body, nil)
}

// Logout deauthenticates the session token but keeps the session alive.
func (s *Scraper) Logout(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, "/api/session/login", nil, nil)
}

type residencePayload struct {
	ID          string `json:"id"`
	Corporation string `json:"corporation"`
	City        string `json:"city"`
	Rent        int    `json:"rent"`
	MinAge      *int   `json:"min_age"`
	MaxAge      *int   `json:"max_age"`
}

func (p residencePayload) candidate() port.ResidenceCandidate {
	return port.ResidenceCandidate{
		ExternalID:        p.ID,
		CorporationHandle: p.Corporation,
		City:              p.City,
		PriceBase:         p.Rent,
		MinAge:            p.MinAge,
		MaxAge:            p.MaxAge,
	}
}

// Residences fetches the public listing.
func (s *Scraper) Residences(ctx context.Context) ([]port.ResidenceCandidate, error) {
	var payload []residencePayload
	if err := s.do(ctx, http.MethodGet, "/api/residences", nil, &payload); err != nil {
		return nil, err
	}
	candidates := make([]port.ResidenceCandidate, 0, len(payload))
	for _, p := range payload {
		candidates = append(candidates, p.candidate())
	}
	return candidates, nil
}

// Residence fetches one listing. A 404 means the listing no longer exists.
func (s *Scraper) Residence(ctx context.Context, externalID string) (*port.ResidenceCandidate, error) {
	var payload residencePayload
	err := s.do(ctx, http.MethodGet, "/api/residences/"+url.PathEscape(externalID), nil, &payload)
	if err != nil {
		var notFound *notFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	candidate := payload.candidate()
	return &candidate, nil
}

type reactionPayload struct {
	ResidenceID string     `json:"residence_id"`
	Corporation string     `json:"corporation"`
	Rank        *int       `json:"rank"`
	CreatedAt   time.Time  `json:"created_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

// Reactions fetches the logged-in account's queue entries.
func (s *Scraper) Reactions(ctx context.Context) ([]port.ReactionRecord, error) {
	var payload []reactionPayload
	if err := s.do(ctx, http.MethodGet, "/api/me/reactions", nil, &payload); err != nil {
		return nil, err
	}
	records := make([]port.ReactionRecord, 0, len(payload))
	for _, p := range payload {
		records = append(records, port.ReactionRecord{
			ExternalID:        p.ResidenceID,
			CorporationHandle: p.Corporation,
			RankNumber:        p.Rank,
			CreatedAt:         p.CreatedAt,
			EndedAt:           p.EndedAt,
		})
	}
	return records, nil
}

type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.path)
}

func (s *Scraper) do(ctx context.Context, method, path string, body any, out any) error {
	if s.client == nil {
		return scraper.NewError(Handle, "request", fmt.Errorf("no active session"))
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return scraper.NewError(Handle, "request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reader)
	if err != nil {
		return scraper.NewError(Handle, "request", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.session != "" {
		req.Header.Set("Authorization", "Bearer "+s.session)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return scraper.NewError(Handle, "request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return scraper.NewError(Handle, "request", &notFoundError{path: path})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return scraper.NewError(Handle, "request", fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return scraper.NewError(Handle, "decode response", err)
	}
	return nil
}

var _ port.Scraper = (*Scraper)(nil)
