package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

type ingestFixture struct {
	registry     *stubRegistry
	platforms    *mockPlatformRepository
	corporations *mockCorporationRepository
	residences   *mockResidenceRepository
	users        *mockUserRepository
	profiles     *mockProfileRepository
	notifier     *stubNotifier
	reporter     *stubReporter
	tx           *stubTx
	service      *IngestService
}

func newIngestFixture(scrapers ...port.Scraper) *ingestFixture {
	f := &ingestFixture{
		registry: &stubRegistry{scrapers: scrapers},
		platforms: &mockPlatformRepository{
			byHandle: map[string]*domain.Platform{},
		},
		corporations: &mockCorporationRepository{
			byHandle: map[string]*domain.Corporation{},
		},
		residences: &mockResidenceRepository{},
		users:      &mockUserRepository{byID: map[string]*domain.User{}},
		profiles:   &mockProfileRepository{},
		notifier:   &stubNotifier{},
		reporter:   &stubReporter{},
	}
	f.tx = &stubTx{
		residences:   f.residences,
		corporations: f.corporations,
		reactions:    &mockReactionRepository{},
	}

	matcher := NewMatchService(f.profiles, f.residences, f.users, f.notifier, zap.NewNop())
	f.service = NewIngestService(f.registry, f.platforms, f.tx, matcher, f.reporter, zap.NewNop())
	return f
}

func (f *ingestFixture) addPlatform(handle string) {
	f.platforms.byHandle[handle] = &domain.Platform{ID: "platform-" + handle, Name: handle, Handle: handle}
}

func (f *ingestFixture) addCorporation(handle string) *domain.Corporation {
	corporation := &domain.Corporation{ID: "corp-" + handle, Name: handle, Handle: handle}
	f.corporations.byHandle[handle] = corporation
	return corporation
}

func TestIngestServiceCreatesUnseenResidences(t *testing.T) {
	sc := &stubScraper{
		handle: "hofwonen",
		residences: []port.ResidenceCandidate{
			{ExternalID: "r-1", CorporationHandle: "vestia", City: "Den Haag", PriceBase: 750},
			{ExternalID: "r-2", CorporationHandle: "vestia", City: "Delft", PriceBase: 820, MinAge: intPtr(23)},
		},
	}
	f := newIngestFixture(sc)
	f.addPlatform("hofwonen")
	corporation := f.addCorporation("vestia")

	// r-1 is already known and must not be recreated.
	f.residences.byKey = map[string]*domain.Residence{
		residenceKey("r-1", corporation.ID): {ID: "existing-1", ExternalID: "r-1", CorporationID: corporation.ID},
	}

	report := f.service.Run(context.Background())

	if got := report.Failed(); got != 0 {
		t.Fatalf("expected no failed units, got %d", got)
	}
	if got := report.NewResidences(); got != 1 {
		t.Fatalf("expected 1 new residence, got %d", got)
	}
	if len(f.residences.created) != 1 {
		t.Fatalf("expected 1 created residence, got %d", len(f.residences.created))
	}

	created := f.residences.created[0]
	if created.ExternalID != "r-2" || created.CorporationID != corporation.ID {
		t.Fatalf("unexpected created residence: %+v", created)
	}
	if created.City != "Delft" || created.PriceBase != 820 {
		t.Fatalf("unexpected created residence fields: %+v", created)
	}
	if created.MinAge == nil || *created.MinAge != 23 {
		t.Fatalf("expected min age 23, got %v", created.MinAge)
	}

	if len(f.corporations.cities) != 1 || f.corporations.cities[0].city != "Delft" {
		t.Fatalf("expected city Delft recorded once, got %v", f.corporations.cities)
	}
	if sc.startCalls != 1 || sc.endCalls != 1 {
		t.Fatalf("expected one session, got start=%d end=%d", sc.startCalls, sc.endCalls)
	}
}

func TestIngestServiceRerunIsIdempotent(t *testing.T) {
	sc := &stubScraper{
		handle: "hofwonen",
		residences: []port.ResidenceCandidate{
			{ExternalID: "r-1", CorporationHandle: "vestia", City: "Den Haag", PriceBase: 700},
		},
	}
	f := newIngestFixture(sc)
	f.addPlatform("hofwonen")
	f.addCorporation("vestia")

	first := f.service.Run(context.Background())
	second := f.service.Run(context.Background())

	if got := first.NewResidences(); got != 1 {
		t.Fatalf("expected 1 new residence on first run, got %d", got)
	}
	if got := second.NewResidences(); got != 0 {
		t.Fatalf("expected 0 new residences on rerun, got %d", got)
	}
	if len(f.residences.created) != 1 {
		t.Fatalf("expected exactly 1 created residence, got %d", len(f.residences.created))
	}
}

func TestIngestServiceIsolatesFailingScraper(t *testing.T) {
	failing := &stubScraper{handle: "hofwonen", residencesErr: errors.New("listing page returned 500")}
	healthy := &stubScraper{
		handle: "stadswoning",
		residences: []port.ResidenceCandidate{
			{ExternalID: "r-9", CorporationHandle: "stek", City: "Leiden", PriceBase: 640},
		},
	}
	f := newIngestFixture(failing, healthy)
	f.addPlatform("hofwonen")
	f.addPlatform("stadswoning")
	f.addCorporation("stek")

	report := f.service.Run(context.Background())

	if len(report.Results) != 2 {
		t.Fatalf("expected 2 unit results, got %d", len(report.Results))
	}
	if report.Results[0].Status != UnitFailed {
		t.Fatalf("expected first unit to fail, got %v", report.Results[0].Status)
	}
	if report.Results[1].Status != UnitOK {
		t.Fatalf("expected second unit to succeed, got %v", report.Results[1].Status)
	}
	if got := report.NewResidences(); got != 1 {
		t.Fatalf("expected healthy scraper to ingest 1 residence, got %d", got)
	}

	if len(f.reporter.reports) != 1 {
		t.Fatalf("expected 1 error report, got %d", len(f.reporter.reports))
	}
	if got := f.reporter.reports[0].tags["platform"]; got != "hofwonen" {
		t.Fatalf("expected report tagged with failing platform, got %q", got)
	}
	if failing.endCalls != 1 {
		t.Fatalf("expected session of failing scraper to be ended, got %d", failing.endCalls)
	}
}

func TestIngestServiceUnknownPlatformHandle(t *testing.T) {
	sc := &stubScraper{handle: "hofwonen"}
	f := newIngestFixture(sc)
	// No platform row for the scraper's handle.

	report := f.service.Run(context.Background())

	if report.Results[0].Status != UnitFailed {
		t.Fatalf("expected unit to fail, got %v", report.Results[0].Status)
	}
	var confErr *ConfigurationError
	if !errors.As(report.Results[0].Err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", report.Results[0].Err)
	}
	if confErr.Handle != "hofwonen" {
		t.Fatalf("expected handle hofwonen, got %q", confErr.Handle)
	}
	if sc.startCalls != 0 {
		t.Fatalf("expected no session for misconfigured unit, got %d", sc.startCalls)
	}
}

func TestIngestServiceMissingCorporationAbortsUnit(t *testing.T) {
	sc := &stubScraper{
		handle: "hofwonen",
		residences: []port.ResidenceCandidate{
			{ExternalID: "r-1", CorporationHandle: "nobody", City: "Utrecht", PriceBase: 900},
		},
	}
	f := newIngestFixture(sc)
	f.addPlatform("hofwonen")

	report := f.service.Run(context.Background())

	if report.Results[0].Status != UnitFailed {
		t.Fatalf("expected unit to fail, got %v", report.Results[0].Status)
	}
	if len(f.residences.created) != 0 {
		t.Fatalf("expected no residences created, got %d", len(f.residences.created))
	}
	if len(f.corporations.cities) != 0 {
		t.Fatalf("expected no cities recorded, got %v", f.corporations.cities)
	}
}

func TestIngestServiceRecoversFromPanic(t *testing.T) {
	panicking := &stubScraper{handle: "hofwonen", panicValue: "nil dereference in parser"}
	healthy := &stubScraper{handle: "stadswoning"}
	f := newIngestFixture(panicking, healthy)
	f.addPlatform("hofwonen")
	f.addPlatform("stadswoning")

	report := f.service.Run(context.Background())

	if len(report.Results) != 2 {
		t.Fatalf("expected both units to report, got %d", len(report.Results))
	}
	if report.Results[0].Status != UnitFailed {
		t.Fatalf("expected panicking unit to fail, got %v", report.Results[0].Status)
	}
	if report.Results[1].Status != UnitOK {
		t.Fatalf("expected healthy unit to succeed, got %v", report.Results[1].Status)
	}
}

func TestIngestServiceNotifiesMatchingProfiles(t *testing.T) {
	sc := &stubScraper{
		handle: "hofwonen",
		residences: []port.ResidenceCandidate{
			{ExternalID: "r-1", CorporationHandle: "vestia", City: "Den Haag", PriceBase: 750},
		},
	}
	f := newIngestFixture(sc)
	f.addPlatform("hofwonen")
	f.addCorporation("vestia")

	birthDate := time.Date(1995, time.March, 12, 0, 0, 0, 0, time.UTC)
	f.profiles.profiles = []domain.Profile{
		{ID: "profile-1", UserID: "user-1", MaxPriceBase: 800, Cities: []string{"Den Haag"}, BirthDate: birthDate},
	}
	f.users.byID["user-1"] = &domain.User{ID: "user-1", Username: "daniel", Email: "daniel@example.com"}
	f.residences.matches = []domain.Residence{
		{ID: "match-1", ExternalID: "r-1", City: "Den Haag", PriceBase: 750},
	}

	report := f.service.Run(context.Background())

	if got := report.Failed(); got != 0 {
		t.Fatalf("expected no failures, got %d", got)
	}
	if len(f.notifier.residencesEvents) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.notifier.residencesEvents))
	}

	event := f.notifier.residencesEvents[0]
	if event.UserID != "user-1" || event.Username != "daniel" {
		t.Fatalf("unexpected event addressee: %+v", event)
	}
	if len(event.Residences) != 1 || event.Residences[0].ID != "match-1" {
		t.Fatalf("unexpected event payload: %+v", event.Residences)
	}

	filter := f.residences.lastFilter
	if len(filter.ResidenceIDs) != 1 {
		t.Fatalf("expected filter restricted to the new residence, got %v", filter.ResidenceIDs)
	}
	if filter.UserID != "user-1" || filter.MaxPriceBase != 800 {
		t.Fatalf("unexpected filter: %+v", filter)
	}
}
