package hofwonen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const listingPage = `<html><body>
<div class="residence-card" data-id="w-100" data-corporation="vestia">
	<span class="residence-city">Den Haag</span>
	<span class="residence-price">€ 1.234</span>
</div>
<div class="residence-card" data-id="w-101" data-corporation="staedion">
	<span class="residence-city">Rijswijk</span>
	<span class="residence-price">€ 695,-</span>
	<span class="residence-min-age">55</span>
</div>
</body></html>`

const detailPage = `<html><body>
<div class="residence-detail" data-id="w-200" data-corporation="vestia">
	<span class="residence-city">Delft</span>
	<span class="residence-price">€ 810</span>
	<span class="residence-max-age">30</span>
</div>
</body></html>`

const reactionsPage = `<html><body>
<table class="reactions"><tbody>
<tr data-id="w-100" data-corporation="vestia">
	<td class="reaction-date">03-08-2026</td>
	<td class="reaction-rank">12</td>
	<td class="reaction-ended">10-08-2026</td>
</tr>
<tr data-id="w-101" data-corporation="staedion">
	<td class="reaction-date">05-08-2026</td>
	<td class="reaction-rank">-</td>
	<td class="reaction-ended">-</td>
</tr>
</tbody></table>
</body></html>`

func newTestScraper(t *testing.T, handler http.Handler) *Scraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, UserAgent: "test-agent", Timeout: 5 * time.Second}, zap.NewNop())
}

func portalHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/aanbod", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/aanbod/w-200", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailPage))
	})
	mux.HandleFunc("/inloggen", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("password") != "correct" {
			_, _ = w.Write([]byte(`<html><body><div class="form-error">Onjuiste gegevens</div></body></html>`))
			return
		}
		_, _ = w.Write([]byte(`<html><body>Welkom</body></html>`))
	})
	mux.HandleFunc("/mijn-reacties", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(reactionsPage))
	})
	mux.HandleFunc("/uitloggen", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestScraperResidences(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	candidates, err := s.Residences(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	require.Equal(t, "w-100", candidates[0].ExternalID)
	require.Equal(t, "vestia", candidates[0].CorporationHandle)
	require.Equal(t, "Den Haag", candidates[0].City)
	require.Equal(t, 1234, candidates[0].PriceBase)
	require.Nil(t, candidates[0].MinAge)

	require.Equal(t, 695, candidates[1].PriceBase)
	require.NotNil(t, candidates[1].MinAge)
	require.Equal(t, 55, *candidates[1].MinAge)
}

func TestScraperResidenceDetail(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	candidate, err := s.Residence(ctx, "w-200")
	require.NoError(t, err)
	require.NotNil(t, candidate)
	require.Equal(t, "w-200", candidate.ExternalID)
	require.Equal(t, "Delft", candidate.City)
	require.Equal(t, 810, candidate.PriceBase)
	require.NotNil(t, candidate.MaxAge)
	require.Equal(t, 30, *candidate.MaxAge)
}

func TestScraperResidenceGone(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	candidate, err := s.Residence(ctx, "w-404")
	require.NoError(t, err)
	require.Nil(t, candidate)
}

func TestScraperLogin(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	require.NoError(t, s.Login(ctx, "daniel@example.com", "correct"))
}

func TestScraperLoginRejected(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	err := s.Login(ctx, "daniel@example.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Onjuiste gegevens")
}

func TestScraperReactions(t *testing.T) {
	s := newTestScraper(t, portalHandler(t))
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx))
	defer func() { require.NoError(t, s.EndSession(ctx)) }()

	records, err := s.Reactions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "w-100", records[0].ExternalID)
	require.NotNil(t, records[0].RankNumber)
	require.Equal(t, 12, *records[0].RankNumber)
	require.Equal(t, time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC), records[0].CreatedAt)
	require.NotNil(t, records[0].EndedAt)
	require.Equal(t, time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC), *records[0].EndedAt)

	// Pending outcome shows as a dash and must stay unset.
	require.Nil(t, records[1].RankNumber)
	require.Nil(t, records[1].EndedAt)
}

func TestScraperRequiresSession(t *testing.T) {
	s := New(Config{BaseURL: "http://localhost:0"}, zap.NewNop())

	_, err := s.Residences(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no active session")
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"€ 1.234", 1234},
		{"€ 695,-", 695},
		{"810", 810},
	}
	for _, c := range cases {
		got, err := parsePrice(c.raw)
		require.NoError(t, err, c.raw)
		require.Equal(t, c.want, got, c.raw)
	}

	_, err := parsePrice(" ")
	require.Error(t, err)
}
