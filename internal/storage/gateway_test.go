package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fined/internal/models"
)

// GatewayTestSuite provides a test suite for the persistence gateway.
type GatewayTestSuite struct {
	suite.Suite
	store   *MemoryStore
	gateway *Gateway
}

// SetupTest runs before each test
func (suite *GatewayTestSuite) SetupTest() {
	suite.store = NewMemoryStore()
	suite.gateway = NewGateway(suite.store)
}

func (suite *GatewayTestSuite) TestBundleRoundTrip() {
	bundle := models.NewBundle("Student", "student@example.com", models.Credential{Plain: "c2VjcmV0"})
	bundle.Transactions = append(bundle.Transactions, models.Transaction{
		ID:     "t1",
		Kind:   models.KindIncome,
		Amount: 5000,
		Source: "allowance",
		Date:   "2026-01-01",
	})
	bundle.BudgetPlans = append(bundle.BudgetPlans, models.BudgetPlan{
		ID: "b1", Name: "Food Budget", Category: "food", Amount: 1500, Period: "monthly",
	})

	require.NoError(suite.T(), suite.gateway.SaveBundle(bundle.Email, bundle))

	loaded, ok, err := suite.gateway.LoadBundle("student@example.com")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "Student", loaded.Name)
	assert.Equal(suite.T(), "c2VjcmV0", loaded.Password.Plain)
	require.Len(suite.T(), loaded.Transactions, 1)
	assert.Equal(suite.T(), "t1", loaded.Transactions[0].ID)
	assert.Equal(suite.T(), 5000.0, loaded.Transactions[0].Amount)
	assert.Equal(suite.T(), "allowance", loaded.Transactions[0].Source)
	require.Len(suite.T(), loaded.BudgetPlans, 1)
	assert.Equal(suite.T(), "Food Budget", loaded.BudgetPlans[0].Name)
	assert.Equal(suite.T(), 1500.0, loaded.BudgetPlans[0].Amount)
	assert.True(suite.T(), loaded.Settings.SpendingAlerts)
}

func (suite *GatewayTestSuite) TestLoadBundleAbsent() {
	bundle, ok, err := suite.gateway.LoadBundle("nobody@example.com")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), bundle)
}

func (suite *GatewayTestSuite) TestLoadBundleCorruptFallsBackToAbsent() {
	require.NoError(suite.T(), suite.store.Set("user:student@example.com", []byte("{not json")))

	bundle, ok, err := suite.gateway.LoadBundle("student@example.com")
	require.NoError(suite.T(), err, "corrupted data must not surface as an error")
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), bundle)
}

func (suite *GatewayTestSuite) TestLegacyCredentialShapes() {
	// Bundles written by earlier versions carry the credential either as a
	// bare string or as a hash+salt object.
	raw := `{"email":"old@example.com","password":{"hash":"99162322","salt":"abc"},"transactions":[]}`
	require.NoError(suite.T(), suite.store.Set("user:old@example.com", []byte(raw)))

	loaded, ok, err := suite.gateway.LoadBundle("old@example.com")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "99162322", loaded.Password.Hash)
	assert.Equal(suite.T(), "abc", loaded.Password.Salt)

	raw = `{"email":"older@example.com","password":"c2VjcmV0"}`
	require.NoError(suite.T(), suite.store.Set("user:older@example.com", []byte(raw)))

	loaded, ok, err = suite.gateway.LoadBundle("older@example.com")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "c2VjcmV0", loaded.Password.Plain)
}

func (suite *GatewayTestSuite) TestHasUser() {
	ok, err := suite.gateway.HasUser("student@example.com")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)

	bundle := models.NewBundle("Student", "student@example.com", models.Credential{})
	require.NoError(suite.T(), suite.gateway.SaveBundle(bundle.Email, bundle))

	ok, err = suite.gateway.HasUser("student@example.com")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *GatewayTestSuite) TestDeleteBundle() {
	bundle := models.NewBundle("Student", "student@example.com", models.Credential{})
	require.NoError(suite.T(), suite.gateway.SaveBundle(bundle.Email, bundle))

	require.NoError(suite.T(), suite.gateway.DeleteBundle("student@example.com"))

	_, ok, err := suite.gateway.LoadBundle("student@example.com")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *GatewayTestSuite) TestSessionRoundTrip() {
	s := &models.Session{
		SessionID:  "tok",
		UserID:     "student@example.com",
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ExpiresAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		AuthMethod: "manual",
	}
	require.NoError(suite.T(), suite.gateway.SaveSession(s))

	loaded, ok, err := suite.gateway.LoadSession()
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), s.SessionID, loaded.SessionID)
	assert.Equal(suite.T(), s.UserID, loaded.UserID)
	assert.Equal(suite.T(), s.AuthMethod, loaded.AuthMethod)
	assert.True(suite.T(), s.CreatedAt.Equal(loaded.CreatedAt))
	assert.True(suite.T(), s.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(suite.T(), suite.gateway.DeleteSession())
	_, ok, err = suite.gateway.LoadSession()
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *GatewayTestSuite) TestLanguageDefault() {
	assert.Equal(suite.T(), DefaultLanguage, suite.gateway.Language())

	require.NoError(suite.T(), suite.gateway.SetLanguage("th"))
	assert.Equal(suite.T(), "th", suite.gateway.Language())
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}
