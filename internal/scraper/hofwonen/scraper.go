// Package hofwonen integrates the Hof Wonen rental portal, an HTML site
// without a public API. Listings and the personal reaction overview are
// parsed from server-rendered pages.
package hofwonen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/scraper"
)

// Handle is the platform key this scraper serves.
const Handle = "hofwonen"

const defaultTimeout = 30 * time.Second

// Config carries the provider-specific settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Scraper implements port.Scraper against the Hof Wonen portal.
type Scraper struct {
	cfg    Config
	logger *zap.Logger
	client *http.Client
}

// New constructs the Hof Wonen scraper. The HTTP client is created per
// session so cookies never leak between runs.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Scraper{cfg: cfg, logger: logger.Named("hofwonen")}
}

// Handle returns the stable platform key.
func (s *Scraper) Handle() string {
	return Handle
}

// StartSession opens a cookie-scoped HTTP client and warms it up against the
// portal so the session cookie is set before any other call.
func (s *Scraper) StartSession(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return scraper.NewError(Handle, "start session", err)
	}
	s.client = &http.Client{Jar: jar, Timeout: s.cfg.Timeout}

	resp, err := s.get(ctx, "/")
	if err != nil {
		s.client = nil
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.client = nil
		return scraper.NewError(Handle, "start session", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// EndSession drops the session client. Safe to call after a failed start.
func (s *Scraper) EndSession(_ context.Context) error {
	if s.client != nil {
		s.client.CloseIdleConnections()
		s.client = nil
	}
	return nil
}

// Login submits the portal login form.
func (s *Scraper) Login(ctx context.Context, identifier, credentials string) error {
	form := url.Values{
		"username": {identifier},
		"password": {credentials},
	}
	doc, err := s.postForm(ctx, "/inloggen", form)
	if err != nil {
		return err
	}
	if msg := strings.TrimSpace(doc.Find(".form-error").Text()); msg != "" {
		return scraper.NewError(Handle, "login", fmt.Errorf("portal rejected credentials: %s", msg))
	}
	return nil
}

// Logout ends the portal session for the logged-in user.
func (s *Scraper) Logout(ctx context.Context) error {
	if _, err := s.getDocument(ctx, "/uitloggen"); err != nil {
		return err
	}
	return nil
}

// Residences parses the public listing page.
func (s *Scraper) Residences(ctx context.Context) ([]port.ResidenceCandidate, error) {
	doc, err := s.getDocument(ctx, "/aanbod")
	if err != nil {
		return nil, err
	}

	var candidates []port.ResidenceCandidate
	var parseErr error
	doc.Find(".residence-card").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, err := s.parseCard(sel)
		if err != nil {
			parseErr = err
			return false
		}
		candidates = append(candidates, candidate)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return candidates, nil
}

// Residence fetches one listing detail page. A 404 means the listing is no
// longer published, which is a valid outcome.
func (s *Scraper) Residence(ctx context.Context, externalID string) (*port.ResidenceCandidate, error) {
	resp, err := s.get(ctx, "/aanbod/"+url.PathEscape(externalID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, scraper.NewError(Handle, "get residence", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, scraper.NewError(Handle, "get residence", err)
	}

	detail := doc.Find(".residence-detail").First()
	if detail.Length() == 0 {
		return nil, nil
	}
	candidate, err := s.parseCard(detail)
	if err != nil {
		return nil, err
	}
	candidate.ExternalID = externalID
	return &candidate, nil
}

// Reactions parses the personal reaction overview of the logged-in user.
func (s *Scraper) Reactions(ctx context.Context) ([]port.ReactionRecord, error) {
	doc, err := s.getDocument(ctx, "/mijn-reacties")
	if err != nil {
		return nil, err
	}

	var records []port.ReactionRecord
	var parseErr error
	doc.Find("table.reactions tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		record, err := s.parseReactionRow(row)
		if err != nil {
			parseErr = err
			return false
		}
		records = append(records, record)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return records, nil
}

func (s *Scraper) parseCard(sel *goquery.Selection) (port.ResidenceCandidate, error) {
	externalID, _ := sel.Attr("data-id")
	corporation, _ := sel.Attr("data-corporation")
	city := strings.TrimSpace(sel.Find(".residence-city").Text())

	price, err := parsePrice(sel.Find(".residence-price").Text())
	if err != nil {
		return port.ResidenceCandidate{}, scraper.NewError(Handle, "parse residence", fmt.Errorf("listing %q: %w", externalID, err))
	}

	candidate := port.ResidenceCandidate{
		ExternalID:        externalID,
		CorporationHandle: corporation,
		City:              city,
		PriceBase:         price,
	}
	if v := strings.TrimSpace(sel.Find(".residence-min-age").Text()); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return port.ResidenceCandidate{}, scraper.NewError(Handle, "parse residence", fmt.Errorf("listing %q: min age %q: %w", externalID, v, err))
		}
		candidate.MinAge = &age
	}
	if v := strings.TrimSpace(sel.Find(".residence-max-age").Text()); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return port.ResidenceCandidate{}, scraper.NewError(Handle, "parse residence", fmt.Errorf("listing %q: max age %q: %w", externalID, v, err))
		}
		candidate.MaxAge = &age
	}
	return candidate, nil
}

func (s *Scraper) parseReactionRow(row *goquery.Selection) (port.ReactionRecord, error) {
	externalID, _ := row.Attr("data-id")
	corporation, _ := row.Attr("data-corporation")

	record := port.ReactionRecord{
		ExternalID:        externalID,
		CorporationHandle: corporation,
	}

	createdAt, err := time.Parse("02-01-2006", strings.TrimSpace(row.Find(".reaction-date").Text()))
	if err != nil {
		return port.ReactionRecord{}, scraper.NewError(Handle, "parse reactions", fmt.Errorf("reaction %q: %w", externalID, err))
	}
	record.CreatedAt = createdAt

	// The portal shows a dash while the outcome is pending.
	if v := strings.TrimSpace(row.Find(".reaction-rank").Text()); v != "" && v != "-" {
		rank, err := strconv.Atoi(v)
		if err != nil {
			return port.ReactionRecord{}, scraper.NewError(Handle, "parse reactions", fmt.Errorf("reaction %q: rank %q: %w", externalID, v, err))
		}
		record.RankNumber = &rank
	}
	if v := strings.TrimSpace(row.Find(".reaction-ended").Text()); v != "" && v != "-" {
		endedAt, err := time.Parse("02-01-2006", v)
		if err != nil {
			return port.ReactionRecord{}, scraper.NewError(Handle, "parse reactions", fmt.Errorf("reaction %q: ended %q: %w", externalID, v, err))
		}
		record.EndedAt = &endedAt
	}
	return record, nil
}

func (s *Scraper) get(ctx context.Context, path string) (*http.Response, error) {
	if s.client == nil {
		return nil, scraper.NewError(Handle, "request", fmt.Errorf("no active session"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, scraper.NewError(Handle, "request", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, scraper.NewError(Handle, "request", err)
	}
	return resp, nil
}

func (s *Scraper) getDocument(ctx context.Context, path string) (*goquery.Document, error) {
	resp, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return s.document(resp, path)
}

func (s *Scraper) postForm(ctx context.Context, path string, form url.Values) (*goquery.Document, error) {
	if s.client == nil {
		return nil, scraper.NewError(Handle, "request", fmt.Errorf("no active session"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, scraper.NewError(Handle, "request", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, scraper.NewError(Handle, "request", err)
	}
	defer resp.Body.Close()
	return s.document(resp, path)
}

func (s *Scraper) document(resp *http.Response, path string) (*goquery.Document, error) {
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, scraper.NewError(Handle, "request", fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, scraper.NewError(Handle, "parse document", err)
	}
	return doc, nil
}

// parsePrice turns "€ 1.234" into 1234. Cents are not shown by the portal.
func parsePrice(raw string) (int, error) {
	cleaned := strings.NewReplacer("€", "", ".", "", ",-", "", " ", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	price, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", raw, err)
	}
	return price, nil
}

var _ port.Scraper = (*Scraper)(nil)
