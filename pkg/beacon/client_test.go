package beacon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/prysmaticlabs/prysm/v5/config/params"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPubkey = "b89bebc699769726a318c8e9971bd3171297c61aea4a6578a7a4f94b547dcba5bac16a89108b6b6a1fe3695d1a874a0b"

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{
			name:     "with trailing slash",
			baseURL:  "http://localhost:5052/",
			expected: "http://localhost:5052",
		},
		{
			name:     "without trailing slash",
			baseURL:  "http://localhost:5052",
			expected: "http://localhost:5052",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.baseURL)
			assert.Equal(t, tt.expected, client.BaseURL())
		})
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		expectError    bool
	}{
		{
			name:           "healthy node",
			responseStatus: http.StatusOK,
		},
		{
			name:           "optimistic node",
			responseStatus: http.StatusPartialContent,
		},
		{
			name:           "unhealthy node",
			responseStatus: http.StatusServiceUnavailable,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/eth/v1/node/health", r.URL.Path)
				w.WriteHeader(tt.responseStatus)
			}))
			defer server.Close()

			err := NewClient(server.URL).Health()

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrChainUnavailable)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHealthUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := NewClient(server.URL).Health()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChainUnavailable)
}

func TestSyncing(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		expected     bool
		expectError  bool
	}{
		{
			name:         "synced",
			responseBody: `{"data":{"is_syncing":false,"head_slot":"123"}}`,
			expected:     false,
		},
		{
			name:         "syncing",
			responseBody: `{"data":{"is_syncing":true,"head_slot":"123"}}`,
			expected:     true,
		},
		{
			name:         "garbage response",
			responseBody: `not json`,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/eth/v1/node/syncing", r.URL.Path)
				_, err := w.Write([]byte(tt.responseBody))
				require.NoError(t, err)
			}))
			defer server.Close()

			syncing, err := NewClient(server.URL).Syncing()

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, syncing)
			}
		})
	}
}

func TestCurrentEpoch(t *testing.T) {
	params.OverrideBeaconConfig(params.MainnetConfig())

	tests := []struct {
		name           string
		responseStatus int
		responseBody   string
		expectedEpoch  primitives.Epoch
		expectError    bool
	}{
		{
			name:           "mid-epoch slot",
			responseStatus: http.StatusOK,
			responseBody:   `{"data":{"header":{"message":{"slot":"11235"}}}}`,
			expectedEpoch:  351,
		},
		{
			name:           "epoch boundary",
			responseStatus: http.StatusOK,
			responseBody:   `{"data":{"header":{"message":{"slot":"320"}}}}`,
			expectedEpoch:  10,
		},
		{
			name:           "genesis",
			responseStatus: http.StatusOK,
			responseBody:   `{"data":{"header":{"message":{"slot":"0"}}}}`,
			expectedEpoch:  0,
		},
		{
			name:           "unparsable slot",
			responseStatus: http.StatusOK,
			responseBody:   `{"data":{"header":{"message":{"slot":"not-a-slot"}}}}`,
			expectError:    true,
		},
		{
			name:           "missing slot",
			responseStatus: http.StatusOK,
			responseBody:   `{"data":{}}`,
			expectError:    true,
		},
		{
			name:           "server error",
			responseStatus: http.StatusInternalServerError,
			responseBody:   `{"error":"oops"}`,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/eth/v1/beacon/headers/head", r.URL.Path)
				w.WriteHeader(tt.responseStatus)
				_, err := w.Write([]byte(tt.responseBody))
				require.NoError(t, err)
			}))
			defer server.Close()

			epoch, err := NewClient(server.URL).CurrentEpoch()

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrChainUnavailable)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedEpoch, epoch)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	params.OverrideBeaconConfig(params.MainnetConfig())

	validBody := `{"data":{
		"index":"42",
		"balance":"32001234567",
		"status":"active_ongoing",
		"validator":{
			"pubkey":"0x` + testPubkey + `",
			"withdrawal_credentials":"0x010000000000000000000000abcdef0123456789abcdef0123456789abcdef01",
			"activation_epoch":"100"
		}
	}}`

	tests := []struct {
		name           string
		pubkey         string
		responseStatus int
		responseBody   string
		expectFound    bool
		expectError    bool
		check          func(*testing.T, *Validator)
	}{
		{
			name:           "active validator",
			pubkey:         testPubkey,
			responseStatus: http.StatusOK,
			responseBody:   validBody,
			expectFound:    true,
			check: func(t *testing.T, v *Validator) {
				t.Helper()
				assert.Equal(t, primitives.ValidatorIndex(42), v.Index)
				assert.Equal(t, uint64(32001234567), v.BalanceGwei)
				assert.Equal(t, apiv1.ValidatorStateActiveOngoing, v.State)
				assert.Equal(t, primitives.Epoch(100), v.ActivationEpoch)
				assert.True(t, v.HasActivationEpoch())
			},
		},
		{
			name:           "0x prefix normalized in request",
			pubkey:         "0x" + testPubkey,
			responseStatus: http.StatusOK,
			responseBody:   validBody,
			expectFound:    true,
		},
		{
			name:           "unknown to the chain",
			pubkey:         testPubkey,
			responseStatus: http.StatusNotFound,
			responseBody:   `{"message":"Validator not found"}`,
			expectFound:    false,
		},
		{
			name:           "unrecognized status tag",
			pubkey:         testPubkey,
			responseStatus: http.StatusOK,
			responseBody:   strings.Replace(validBody, "active_ongoing", "some_future_state", 1),
			expectFound:    true,
			check: func(t *testing.T, v *Validator) {
				t.Helper()
				assert.Equal(t, apiv1.ValidatorStateUnknown, v.State)
			},
		},
		{
			name:           "pending activation epoch sentinel",
			pubkey:         testPubkey,
			responseStatus: http.StatusOK,
			responseBody: strings.Replace(
				strings.Replace(validBody, `"activation_epoch":"100"`, `"activation_epoch":"18446744073709551615"`, 1),
				"active_ongoing", "pending_queued", 1),
			expectFound: true,
			check: func(t *testing.T, v *Validator) {
				t.Helper()
				assert.False(t, v.HasActivationEpoch())
				assert.Equal(t, apiv1.ValidatorStatePendingQueued, v.State)
			},
		},
		{
			name:           "garbage balance",
			pubkey:         testPubkey,
			responseStatus: http.StatusOK,
			responseBody:   strings.Replace(validBody, `"balance":"32001234567"`, `"balance":"lots"`, 1),
			expectError:    true,
		},
		{
			name:           "server error",
			pubkey:         testPubkey,
			responseStatus: http.StatusInternalServerError,
			responseBody:   `{"error":"oops"}`,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/eth/v1/beacon/states/head/validators/0x"+testPubkey, r.URL.Path)
				w.WriteHeader(tt.responseStatus)
				_, err := w.Write([]byte(tt.responseBody))
				require.NoError(t, err)
			}))
			defer server.Close()

			v, found, err := NewClient(server.URL).Validator(tt.pubkey)

			if tt.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectFound, found)

			if tt.check != nil {
				require.NotNil(t, v)
				tt.check(t, v)
			}
		})
	}
}
