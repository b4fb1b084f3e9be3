package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fined/internal/models"
	"fined/internal/storage"
)

// SessionTestSuite provides a test suite for session lifecycle operations.
type SessionTestSuite struct {
	suite.Suite
	gateway *storage.Gateway
	manager *Manager
	clock   time.Time
}

// SetupTest runs before each test
func (suite *SessionTestSuite) SetupTest() {
	suite.gateway = storage.NewGateway(storage.NewMemoryStore())
	suite.manager = NewManager(suite.gateway)
	suite.clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.manager.now = func() time.Time { return suite.clock }
}

func (suite *SessionTestSuite) TestCreateAndValidate() {
	created, err := suite.manager.Create("student@example.com", "manual")
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), created.SessionID)
	assert.Equal(suite.T(), suite.clock.Add(Lifetime), created.ExpiresAt)

	s, ok := suite.manager.Validate()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "student@example.com", s.UserID)
	assert.Equal(suite.T(), "manual", s.AuthMethod)
}

func (suite *SessionTestSuite) TestValidateNoSession() {
	s, ok := suite.manager.Validate()
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), s)
}

func (suite *SessionTestSuite) TestValidateExpiredClearsRecord() {
	_, err := suite.manager.Create("student@example.com", "manual")
	require.NoError(suite.T(), err)

	// 25 hours later the 24h session is gone.
	suite.clock = suite.clock.Add(25 * time.Hour)

	_, ok := suite.manager.Validate()
	assert.False(suite.T(), ok)

	_, stored, err := suite.gateway.LoadSession()
	require.NoError(suite.T(), err)
	assert.False(suite.T(), stored, "expired record must be cleared from the store")
}

func (suite *SessionTestSuite) TestValidateJustBeforeExpiry() {
	_, err := suite.manager.Create("student@example.com", "manual")
	require.NoError(suite.T(), err)

	suite.clock = suite.clock.Add(Lifetime - time.Minute)

	_, ok := suite.manager.Validate()
	assert.True(suite.T(), ok)
}

func (suite *SessionTestSuite) TestValidateMissingFields() {
	require.NoError(suite.T(), suite.gateway.SaveSession(&models.Session{
		SessionID: "", // no token
		UserID:    "student@example.com",
		ExpiresAt: suite.clock.Add(time.Hour),
	}))

	_, ok := suite.manager.Validate()
	assert.False(suite.T(), ok)
}

func (suite *SessionTestSuite) TestCreateOverwritesPrevious() {
	first, err := suite.manager.Create("first@example.com", "manual")
	require.NoError(suite.T(), err)

	second, err := suite.manager.Create("second@example.com", "manual")
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), first.SessionID, second.SessionID)

	s, ok := suite.manager.Validate()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "second@example.com", s.UserID, "single session slot holds the latest login")
}

func (suite *SessionTestSuite) TestClear() {
	_, err := suite.manager.Create("student@example.com", "manual")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.manager.Clear())

	_, ok := suite.manager.Validate()
	assert.False(suite.T(), ok)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
