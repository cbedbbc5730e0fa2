package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-dashboard/internal/config"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *SheetsClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SpreadsheetID: "sheet-1",
		APIKey:        "test-key",
		SheetsBaseURL: srv.URL,
		HTTPTimeout:   5 * time.Second,
		RetryAttempts: 3,
		Sheets:        config.DefaultSheets(),
	}
	c, err := NewSheetsClient(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func googleError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}

func TestFetchGrid(t *testing.T) {
	var gotPath, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"range":          "Pipeline!A1:Z1000",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Date", "Open"},
				{"1/2/2024", "38%"},
				{"1/3/2024"},
			},
		})
	})

	grid, err := c.FetchGrid(context.Background(), "1-1 RSM : All Campaign", "")
	require.NoError(t, err)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/'1-1 RSM : All Campaign'!A1:Z1000", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Date", "Open"}, grid.Headers())
	assert.Len(t, grid[2], 1)
}

func TestFetchGrid_EmptySheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"range": "Empty!A1:Z1000"})
	})

	grid, err := c.FetchGrid(context.Background(), "Empty", "A1:Z1000")
	require.NoError(t, err)
	assert.Empty(t, grid)
}

func TestFetchGrid_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    error
	}{
		{"permission", http.StatusForbidden, "The caller does not have permission", ErrPermissionDenied},
		{"not found", http.StatusNotFound, "Requested entity was not found.", ErrNotFound},
		{"quota", http.StatusTooManyRequests, "Quota exceeded for quota metric 'Read requests'", ErrQuotaExceeded},
		{"server", http.StatusInternalServerError, "Internal error", ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				googleError(w, tt.status, tt.message)
			})

			_, err := c.FetchGrid(context.Background(), "Pipeline", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *SourceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "Pipeline", se.Sheet)
			assert.Equal(t, tt.status, se.Status)
		})
	}
}

func TestFetchGrid_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			googleError(w, http.StatusServiceUnavailable, "backend error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"values": [][]interface{}{{"A"}}})
	})

	grid, err := c.FetchGrid(context.Background(), "Pipeline", "")
	require.NoError(t, err)
	assert.Len(t, grid, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchGrid_NoRetryOnClientError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		googleError(w, http.StatusNotFound, "not found")
	})

	_, err := c.FetchGrid(context.Background(), "Pipeline", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchGrid_InvalidRangeListsSheets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/values/") {
			googleError(w, http.StatusBadRequest, "Unable to parse range: Pipline!A1:Z1000")
			return
		}
		assert.Equal(t, "sheets.properties.title", r.URL.Query().Get("fields"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sheets": []map[string]interface{}{
				{"properties": map[string]string{"title": "Pipeline"}},
				{"properties": map[string]string{"title": "RSM Stats - Drip"}},
			},
		})
	})

	_, err := c.FetchGrid(context.Background(), "Pipline", "")
	require.ErrorIs(t, err, ErrInvalidRange)

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"Pipeline", "RSM Stats - Drip"}, se.Available)

	advice := Advisory(err)
	assert.Contains(t, advice, `Sheet "Pipline" not found`)
	assert.Contains(t, advice, "Pipeline, RSM Stats - Drip")
	assert.Contains(t, advice, `Did you mean "Pipeline"?`)
}

func TestFetchGrid_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		googleError(w, http.StatusServiceUnavailable, "backend error")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchGrid(ctx, "Pipeline", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListSheetNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sheets": []map[string]interface{}{
				{"properties": map[string]string{"title": "Sheet1"}},
			},
		})
	})

	names, err := c.ListSheetNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, names)
}

func TestNewSheetsClient_NotConfigured(t *testing.T) {
	_, err := NewSheetsClient(context.Background(), &config.Config{}, quietLogger())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewSheetsClient(context.Background(), &config.Config{SpreadsheetID: "x"}, quietLogger())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestA1Range(t *testing.T) {
	assert.Equal(t, "Pipeline!A1:Z1000", A1Range("Pipeline", "A1:Z1000"))
	assert.Equal(t, "'RSM Stats - Drip'!A1:ZZ10000", A1Range("RSM Stats - Drip", "A1:ZZ10000"))
	assert.Equal(t, "'Bob''s tab'!A1:B2", A1Range("Bob's tab", "A1:B2"))
	assert.Equal(t, "A1:B2", A1Range("", "A1:B2"))
}

func TestAdvisory(t *testing.T) {
	assert.Empty(t, Advisory(nil))
	assert.Contains(t, Advisory(ErrNotConfigured), "GOOGLE_SHEET_ID")
	assert.Contains(t, Advisory(&SourceError{Err: ErrQuotaExceeded}), "quota")
	assert.Contains(t, Advisory(&SourceError{Err: ErrPermissionDenied}), "Permission denied")
	assert.Contains(t, Advisory(&SourceError{Err: ErrNotFound}), "not found")
	assert.Contains(t, Advisory(&SourceError{Err: ErrInvalidRange}), "Invalid range")
	assert.Contains(t, Advisory(errors.New("boom")), "unavailable")
}

func TestSuggest(t *testing.T) {
	names := []string{"Pipeline", "RSM Stats - Drip", "1-1 RSM : All Campaign"}
	assert.Equal(t, "Pipeline", Suggest("pipeline", names))
	assert.Equal(t, "RSM Stats - Drip", Suggest("drip", names))
	assert.Equal(t, "Pipeline", Suggest("Pipelin3", names))
	assert.Empty(t, Suggest("Quarterly Revenue Forecast", names))
	assert.Empty(t, Suggest("", names))
}
