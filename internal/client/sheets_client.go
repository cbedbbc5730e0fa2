package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"

	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/models"
)

const readOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// SheetsClient reads value ranges from the Google Sheets v4 REST API.
type SheetsClient struct {
	client        *http.Client
	baseURL       string
	spreadsheetID string
	apiKey        string
	defaultRange  string
	retryAttempts int
	limiter       *rate.Limiter
	backoff       func(attempt int) time.Duration
	logger        *logrus.Logger
}

func NewSheetsClient(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*SheetsClient, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_ID is empty: %w", ErrNotConfigured)
	}

	httpClient, err := authorizedClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	httpClient.Timeout = cfg.HTTPTimeout

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &SheetsClient{
		client:        httpClient,
		baseURL:       strings.TrimRight(cfg.SheetsBaseURL, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		apiKey:        cfg.APIKey,
		defaultRange:  cfg.Sheets.Range,
		retryAttempts: max(cfg.RetryAttempts, 1),
		limiter:       rate.NewLimiter(limit, 5),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
		logger: logger,
	}, nil
}

// authorizedClient prefers service-account credentials over an API key.
func authorizedClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	base := &http.Client{Timeout: cfg.HTTPTimeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	switch {
	case cfg.ServiceAccountEmail != "" && cfg.PrivateKey != "":
		conf := &jwt.Config{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{readOnlyScope},
			TokenURL:   google.JWTTokenURL,
		}
		return conf.Client(ctx), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		conf, err := google.JWTConfigFromJSON(data, readOnlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		return conf.Client(ctx), nil
	case cfg.APIKey != "":
		return base, nil
	default:
		return nil, fmt.Errorf("no service account or API key: %w", ErrNotConfigured)
	}
}

type valueRange struct {
	Range          string          `json:"range"`
	MajorDimension string          `json:"majorDimension"`
	Values         [][]interface{} `json:"values"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// FetchGrid returns the cells of sheet!rangeSpec. An empty rangeSpec uses the
// configured default range.
func (c *SheetsClient) FetchGrid(ctx context.Context, sheet, rangeSpec string) (models.Grid, error) {
	if rangeSpec == "" {
		rangeSpec = c.defaultRange
	}
	a1 := A1Range(sheet, rangeSpec)

	q := url.Values{}
	q.Set("majorDimension", "ROWS")
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1))

	var vr valueRange
	err := c.retryRequest(ctx, "values.get", endpoint, q, &vr)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			se.Sheet, se.Range = sheet, rangeSpec
			if errors.Is(se, ErrInvalidRange) {
				se.Available = c.availableSheets(ctx)
			}
		}
		return nil, fmt.Errorf("failed to fetch sheet data: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"sheet": sheet,
		"range": rangeSpec,
		"rows":  len(vr.Values),
	}).Info("Fetched sheet data")
	return models.Grid(vr.Values), nil
}

// ListSheetNames returns the tab titles of the spreadsheet.
func (c *SheetsClient) ListSheetNames(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("fields", "sheets.properties.title")
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s", c.baseURL, url.PathEscape(c.spreadsheetID))

	var meta spreadsheetMeta
	if err := c.retryRequest(ctx, "spreadsheets.get", endpoint, q, &meta); err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	names := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		names = append(names, s.Properties.Title)
	}
	return names, nil
}

func (c *SheetsClient) availableSheets(ctx context.Context) []string {
	names, err := c.ListSheetNames(ctx)
	if err != nil {
		c.logger.WithError(err).Debug("Could not list sheets for range advice")
		return nil
	}
	return names
}

func (c *SheetsClient) retryRequest(ctx context.Context, operation, endpoint string, query url.Values, target interface{}) (err error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(operation, outcome(err)).Inc()
	}()

	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	fullURL := endpoint + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoffTime := c.backoff(attempt)
			c.logger.WithFields(logrus.Fields{
				"attempt":   attempt + 1,
				"backoff":   backoffTime,
				"operation": operation,
			}).Warn("Retrying request after backoff")
			retriesTotal.Inc()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffTime):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, fullURL, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}

	return fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
}

// do performs one request. It reports whether a failure is worth retrying.
func (c *SheetsClient) do(ctx context.Context, fullURL string, target interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, &SourceError{Err: ErrUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, &SourceError{Err: ErrUnavailable, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		se := &SourceError{
			Status:  resp.StatusCode,
			Message: apiErr.Error.Message,
			Err:     classify(resp.StatusCode, apiErr.Error.Message),
		}
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return retry, se
	}

	if err := json.Unmarshal(body, target); err != nil {
		return true, &SourceError{Err: ErrUnavailable, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return false, nil
}

// A1Range builds "Sheet!A1:Z1000", quoting the sheet name when needed.
func A1Range(sheet, rangeSpec string) string {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return rangeSpec
	}
	if needsQuoting(sheet) {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	if rangeSpec == "" {
		return sheet
	}
	return sheet + "!" + rangeSpec
}

func needsQuoting(sheet string) bool {
	for _, r := range sheet {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
