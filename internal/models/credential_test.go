package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Credential
	}{
		{"bcrypt string", `"$2a$10$abcdefghijklmnopqrstuv"`, Credential{Bcrypt: "$2a$10$abcdefghijklmnopqrstuv"}},
		{"legacy base64 string", `"c2VjcmV0MTIz"`, Credential{Plain: "c2VjcmV0MTIz"}},
		{"salted object", `{"hash":"99162322","salt":"abc"}`, Credential{Hash: "99162322", Salt: "abc"}},
		{"null", `null`, Credential{}},
		{"empty string", `""`, Credential{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Credential
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestCredentialMarshalKeepsShape(t *testing.T) {
	out, err := json.Marshal(Credential{Hash: "99162322", Salt: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hash":"99162322","salt":"abc"}`, string(out))

	out, err = json.Marshal(Credential{Plain: "c2VjcmV0MTIz"})
	require.NoError(t, err)
	assert.Equal(t, `"c2VjcmV0MTIz"`, string(out))

	out, err = json.Marshal(Credential{Bcrypt: "$2a$10$x"})
	require.NoError(t, err)
	assert.Equal(t, `"$2a$10$x"`, string(out))
}

func TestBundleRoundTripsReservedFields(t *testing.T) {
	// Fields the app never interprets must survive a load/save cycle.
	raw := `{
		"email": "student@example.com",
		"password": "c2VjcmV0",
		"alarms": [{"at":"07:00","label":"rent"}],
		"alertHistory": [{"kind":"spending"}],
		"goals": [42],
		"budgets": {"food": 100},
		"settings": {"spendingAlerts": false}
	}`

	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.False(t, b.Settings.SpendingAlerts)

	out, err := json.Marshal(&b)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `[{"at":"07:00","label":"rent"}]`, string(decoded["alarms"]))
	assert.JSONEq(t, `[{"kind":"spending"}]`, string(decoded["alertHistory"]))
	assert.JSONEq(t, `[42]`, string(decoded["goals"]))
	assert.JSONEq(t, `{"food": 100}`, string(decoded["budgets"]))
}
