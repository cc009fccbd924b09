package eventsync_test

import (
	"context"
	"database/sql"
	"time"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements eventsync.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx executes the callback against a zero transaction so handler logic
// runs exactly as it would inside a real transaction.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return fn(ctx, tx)
}

func (m *MockRepositoryManager) Users() eventsync.Users {
	args := m.Called()
	return args.Get(0).(eventsync.Users)
}

func (m *MockRepositoryManager) Schools() eventsync.Schools {
	args := m.Called()
	return args.Get(0).(eventsync.Schools)
}

func (m *MockRepositoryManager) Events() eventsync.Events {
	args := m.Called()
	return args.Get(0).(eventsync.Events)
}

func (m *MockRepositoryManager) Registrations() repository.Repository[*eventsync.EventRegistration] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*eventsync.EventRegistration])
}

func (m *MockRepositoryManager) Contacts() repository.Repository[*eventsync.Contact] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*eventsync.Contact])
}

// MockUsers implements eventsync.Users. The embedded interface covers the
// untouched repository surface; only the methods under test are mocked.
type MockUsers struct {
	mock.Mock
	eventsync.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*eventsync.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*eventsync.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*eventsync.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *eventsync.User, criteria ...repository.InsertCriteria) (*eventsync.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.User), args.Error(1)
}

func (m *MockUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *eventsync.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *eventsync.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSchools implements eventsync.Schools
type MockSchools struct {
	mock.Mock
	eventsync.Schools
}

func (m *MockSchools) GetByNameTx(ctx context.Context, tx bun.IDB, name string, criteria ...repository.SelectCriteria) (*eventsync.School, error) {
	args := m.Called(ctx, tx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.School), args.Error(1)
}

func (m *MockSchools) CreateTx(ctx context.Context, tx bun.IDB, record *eventsync.School, criteria ...repository.InsertCriteria) (*eventsync.School, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.School), args.Error(1)
}

func (m *MockSchools) ListRoster(ctx context.Context, schoolID uuid.UUID) ([]*eventsync.User, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*eventsync.User), args.Error(1)
}

// MockEvents implements eventsync.Events
type MockEvents struct {
	mock.Mock
	eventsync.Events
}

func (m *MockEvents) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*eventsync.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.Event), args.Error(1)
}

func (m *MockEvents) CreateTx(ctx context.Context, tx bun.IDB, record *eventsync.Event, criteria ...repository.InsertCriteria) (*eventsync.Event, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.Event), args.Error(1)
}

func (m *MockEvents) UpdateTx(ctx context.Context, tx bun.IDB, record *eventsync.Event, criteria ...repository.UpdateCriteria) (*eventsync.Event, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.Event), args.Error(1)
}

func (m *MockEvents) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockEvents) CountConfirmedRegistrationsTx(ctx context.Context, tx bun.IDB, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, eventID)
	return args.Int(0), args.Error(1)
}

// MockRegistrations implements the registrations repository surface
type MockRegistrations struct {
	mock.Mock
	repository.Repository[*eventsync.EventRegistration]
}

func (m *MockRegistrations) CreateTx(ctx context.Context, tx bun.IDB, record *eventsync.EventRegistration, criteria ...repository.InsertCriteria) (*eventsync.EventRegistration, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.EventRegistration), args.Error(1)
}

func (m *MockRegistrations) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*eventsync.EventRegistration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.EventRegistration), args.Error(1)
}

func (m *MockRegistrations) UpdateTx(ctx context.Context, tx bun.IDB, record *eventsync.EventRegistration, criteria ...repository.UpdateCriteria) (*eventsync.EventRegistration, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventsync.EventRegistration), args.Error(1)
}

// MockMailer implements eventsync.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(subject, to, body string) error {
	args := m.Called(subject, to, body)
	return args.Error(0)
}

// MockIdentityProvider implements eventsync.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (eventsync.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(eventsync.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (eventsync.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(eventsync.Identity), args.Error(1)
}

type testConfig struct {
	signingKey        string
	issuer            string
	contextKey        string
	tokenExpiration   int
	extendedDuration  int
	minPasswordLength int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:        "test-signing-key",
		issuer:            "eventsync-test",
		contextKey:        "session",
		tokenExpiration:   24,
		extendedDuration:  24 * 7,
		minPasswordLength: 8,
	}
}

func (c *testConfig) GetSigningKey() string                     { return c.signingKey }
func (c *testConfig) GetContextKey() string                     { return c.contextKey }
func (c *testConfig) GetIssuer() string                         { return c.issuer }
func (c *testConfig) GetTokenExpiration() int                   { return c.tokenExpiration }
func (c *testConfig) GetExtendedTokenDuration() int             { return c.extendedDuration }
func (c *testConfig) GetVerificationWindow() time.Duration      { return eventsync.DefaultVerificationWindow }
func (c *testConfig) GetResetWindow() time.Duration             { return eventsync.DefaultResetWindow }
func (c *testConfig) GetMinPasswordLength() int                 { return c.minPasswordLength }
func (c *testConfig) GetRejectedRouteKey() string               { return "jump_back" }
func (c *testConfig) GetRejectedRouteDefault() string           { return "/login" }
