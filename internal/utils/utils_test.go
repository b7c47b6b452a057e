package utils

import (
	"net/http"
	"testing"
)

func TestErrorConstructors(t *testing.T) {
	testCases := []struct {
		name       string
		err        *AppError
		wantCode   ErrorCode
		wantStatus int
	}{
		{
			name:       "No API keys",
			err:        NewNoAPIKeysError(),
			wantCode:   ErrorCodeNoAPIKeys,
			wantStatus: http.StatusPreconditionFailed,
		},
		{
			name:       "All keys exhausted",
			err:        NewAllKeysExhaustedError("quota exceeded"),
			wantCode:   ErrorCodeAllKeysExhausted,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "YouTube API error",
			err:        NewYouTubeAPIError(400, "bad request"),
			wantCode:   ErrorCodeYouTubeAPIError,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "Channel not found",
			err:        NewChannelNotFoundError("UC123"),
			wantCode:   ErrorCodeChannelNotFound,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.wantCode {
				t.Errorf("Expected code %s, got %s", tc.wantCode, tc.err.Code)
			}
			if tc.err.StatusCode != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, tc.err.StatusCode)
			}
			if tc.err.Error() == "" {
				t.Error("Expected non-empty error string")
			}
		})
	}
}

func TestAllKeysExhaustedEmbedsLastError(t *testing.T) {
	err := NewAllKeysExhaustedError("transport: connection refused")
	if err.Details["last_error"] != "transport: connection refused" {
		t.Errorf("Expected last error detail, got %v", err.Details["last_error"])
	}
}

func TestGenerateIDs(t *testing.T) {
	correlationID := GenerateCorrelationID()
	if correlationID == "" {
		t.Error("Expected non-empty correlation ID")
	}

	requestID := GenerateRequestID()
	if requestID == "" {
		t.Error("Expected non-empty request ID")
	}

	// Check that IDs are different
	if correlationID == requestID {
		t.Error("Correlation ID and request ID should be different")
	}
}
