package usecase

import (
	"context"
	"time"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// Shared hand-rolled stubs for the unit tests in this package.

type stubScraper struct {
	handle string

	residences    []port.ResidenceCandidate
	residencesErr error
	panicValue    any

	reactions    []port.ReactionRecord
	reactionsErr error

	single    map[string]*port.ResidenceCandidate
	singleErr map[string]error

	startErr  error
	endErr    error
	loginErr  error
	logoutErr error

	startCalls     int
	endCalls       int
	loginCalls     int
	logoutCalls    int
	residenceCalls map[string]int

	lastIdentifier  string
	lastCredentials string
}

func (s *stubScraper) Handle() string { return s.handle }

func (s *stubScraper) StartSession(context.Context) error {
	s.startCalls++
	return s.startErr
}

func (s *stubScraper) EndSession(context.Context) error {
	s.endCalls++
	return s.endErr
}

func (s *stubScraper) Login(_ context.Context, identifier, credentials string) error {
	s.loginCalls++
	s.lastIdentifier = identifier
	s.lastCredentials = credentials
	return s.loginErr
}

func (s *stubScraper) Logout(context.Context) error {
	s.logoutCalls++
	return s.logoutErr
}

func (s *stubScraper) Residences(context.Context) ([]port.ResidenceCandidate, error) {
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	if s.residencesErr != nil {
		return nil, s.residencesErr
	}
	return s.residences, nil
}

func (s *stubScraper) Residence(_ context.Context, externalID string) (*port.ResidenceCandidate, error) {
	if s.residenceCalls == nil {
		s.residenceCalls = make(map[string]int)
	}
	s.residenceCalls[externalID]++
	if err, ok := s.singleErr[externalID]; ok {
		return nil, err
	}
	return s.single[externalID], nil
}

func (s *stubScraper) Reactions(context.Context) ([]port.ReactionRecord, error) {
	if s.reactionsErr != nil {
		return nil, s.reactionsErr
	}
	return s.reactions, nil
}

type stubRegistry struct {
	scrapers []port.Scraper
}

func (r *stubRegistry) All() []port.Scraper { return r.scrapers }

func (r *stubRegistry) Lookup(handle string) (port.Scraper, bool) {
	for _, sc := range r.scrapers {
		if sc.Handle() == handle {
			return sc, true
		}
	}
	return nil, false
}

type mockPlatformRepository struct {
	byID     map[string]*domain.Platform
	byHandle map[string]*domain.Platform
}

func (m *mockPlatformRepository) GetByID(_ context.Context, id string) (*domain.Platform, error) {
	if platform, ok := m.byID[id]; ok {
		return platform, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockPlatformRepository) GetByHandle(_ context.Context, handle string) (*domain.Platform, error) {
	if platform, ok := m.byHandle[handle]; ok {
		return platform, nil
	}
	return nil, repository.ErrNotFound
}

type cityEntry struct {
	corporationID string
	city          string
}

type mockCorporationRepository struct {
	byHandle map[string]*domain.Corporation
	getErr   error

	cities     []cityEntry
	addCityErr error
}

func (m *mockCorporationRepository) GetByHandle(_ context.Context, handle string) (*domain.Corporation, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if corporation, ok := m.byHandle[handle]; ok {
		return corporation, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockCorporationRepository) AddCity(_ context.Context, corporationID, city string) error {
	if m.addCityErr != nil {
		return m.addCityErr
	}
	m.cities = append(m.cities, cityEntry{corporationID: corporationID, city: city})
	return nil
}

func residenceKey(externalID, corporationID string) string {
	return externalID + "/" + corporationID
}

type mockResidenceRepository struct {
	byKey map[string]*domain.Residence

	created   []domain.Residence
	createErr error

	ended    map[string]time.Time
	endedErr error

	matches    []domain.Residence
	matchErr   error
	matchCalls int
	lastFilter port.MatchFilter
}

func (m *mockResidenceRepository) GetByExternalID(_ context.Context, externalID, corporationID string) (*domain.Residence, error) {
	if residence, ok := m.byKey[residenceKey(externalID, corporationID)]; ok {
		return residence, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockResidenceRepository) Create(_ context.Context, residence domain.Residence) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.byKey == nil {
		m.byKey = make(map[string]*domain.Residence)
	}
	stored := residence
	m.byKey[residenceKey(residence.ExternalID, residence.CorporationID)] = &stored
	m.created = append(m.created, residence)
	return nil
}

func (m *mockResidenceRepository) SetReactionsEnded(_ context.Context, residenceID string, endedAt time.Time) error {
	if m.endedErr != nil {
		return m.endedErr
	}
	if m.ended == nil {
		m.ended = make(map[string]time.Time)
	}
	m.ended[residenceID] = endedAt
	return nil
}

func (m *mockResidenceRepository) MatchForProfile(_ context.Context, filter port.MatchFilter) ([]domain.Residence, error) {
	m.matchCalls++
	m.lastFilter = filter
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	return m.matches, nil
}

func reactionKey(residenceID, registrationID string) string {
	return residenceID + "/" + registrationID
}

type mockReactionRepository struct {
	byKey map[string]*domain.Reaction

	created   []domain.Reaction
	createErr error

	rankUpdates map[string]int
	updateErr   error
}

func (m *mockReactionRepository) GetByResidenceAndRegistration(_ context.Context, residenceID, registrationID string) (*domain.Reaction, error) {
	if reaction, ok := m.byKey[reactionKey(residenceID, registrationID)]; ok {
		copied := *reaction
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockReactionRepository) Create(_ context.Context, reaction domain.Reaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, reaction)
	return nil
}

func (m *mockReactionRepository) UpdateRank(_ context.Context, reactionID string, rank int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.rankUpdates == nil {
		m.rankUpdates = make(map[string]int)
	}
	m.rankUpdates[reactionID] = rank
	return nil
}

type mockRegistrationRepository struct {
	registrations []domain.Registration
	listErr       error
}

func (m *mockRegistrationRepository) List(context.Context) ([]domain.Registration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.registrations, nil
}

type mockUserRepository struct {
	byID map[string]*domain.User
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type mockProfileRepository struct {
	profiles  []domain.Profile
	listErr   error
	listCalls int
}

func (m *mockProfileRepository) List(context.Context) ([]domain.Profile, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.profiles, nil
}

type stubNotifier struct {
	residencesEvents []domain.ResidencesMatchedEvent
	residencesErr    error

	reactionsEvents []domain.ReactionsRankedEvent
	reactionsErr    error
}

func (n *stubNotifier) NotifyResidences(_ context.Context, event domain.ResidencesMatchedEvent) error {
	if n.residencesErr != nil {
		return n.residencesErr
	}
	n.residencesEvents = append(n.residencesEvents, event)
	return nil
}

func (n *stubNotifier) NotifyReactions(_ context.Context, event domain.ReactionsRankedEvent) error {
	if n.reactionsErr != nil {
		return n.reactionsErr
	}
	n.reactionsEvents = append(n.reactionsEvents, event)
	return nil
}

type reportedError struct {
	err  error
	tags map[string]string
}

type stubReporter struct {
	reports []reportedError
}

func (r *stubReporter) Report(_ context.Context, err error, tags map[string]string) {
	r.reports = append(r.reports, reportedError{err: err, tags: tags})
}

// stubTx runs the transactional function against the same mocks the rest of
// the test uses, so staged writes land where assertions can see them.
type stubTx struct {
	residences   *mockResidenceRepository
	corporations *mockCorporationRepository
	reactions    *mockReactionRepository

	beginErr error
	calls    int
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context, stores port.Stores) error) error {
	t.calls++
	if t.beginErr != nil {
		return t.beginErr
	}
	return fn(ctx, t)
}

func (t *stubTx) Residences() port.ResidenceRepository     { return t.residences }
func (t *stubTx) Corporations() port.CorporationRepository { return t.corporations }
func (t *stubTx) Reactions() port.ReactionRepository       { return t.reactions }

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }
