package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	ErrNotConfigured    = errors.New("google sheets not configured")
	ErrInvalidRange     = errors.New("invalid range")
	ErrNotFound         = errors.New("spreadsheet not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrUnavailable      = errors.New("sheets unavailable")
)

// SourceError is a classified failure of one sheet request.
type SourceError struct {
	Sheet   string
	Range   string
	Status  int
	Message string
	Err     error

	// Available holds the real tab names when the range did not parse.
	Available []string
}

func (e *SourceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Sheet != "" {
		fmt.Fprintf(&b, " (sheet %q)", e.Sheet)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// classify maps a Sheets API error response to a sentinel.
func classify(status int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "unable to parse range") || strings.Contains(lower, "parse range"):
		return ErrInvalidRange
	case status == http.StatusTooManyRequests || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return ErrQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrPermissionDenied
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUnavailable
	}
}

// Advisory turns a fetch error into the message shown on the dashboard.
func Advisory(err error) string {
	if err == nil {
		return ""
	}

	var se *SourceError
	errors.As(err, &se)

	switch {
	case errors.Is(err, ErrNotConfigured):
		return "Google Sheets credentials not configured. Set GOOGLE_SHEET_ID and either GOOGLE_SERVICE_ACCOUNT_EMAIL with GOOGLE_PRIVATE_KEY, or GOOGLE_API_KEY."
	case errors.Is(err, ErrQuotaExceeded):
		return "Google Sheets API quota exceeded. Please try again in a minute."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied. Make sure the service account has access to the Google Sheet, or the sheet is public if using an API key."
	case errors.Is(err, ErrNotFound):
		return "Google Sheet not found. Please check GOOGLE_SHEET_ID."
	case errors.Is(err, ErrInvalidRange):
		return invalidRangeAdvice(se)
	default:
		return "Google Sheets is unavailable right now. Showing empty data."
	}
}

func invalidRangeAdvice(se *SourceError) string {
	if se == nil || len(se.Available) == 0 {
		return `Invalid range. Make sure the sheet name exists. Format should be "SheetName!A1:Z1000".`
	}

	msg := fmt.Sprintf("Sheet %q not found. Available sheets: %s.", se.Sheet, strings.Join(se.Available, ", "))
	if s := Suggest(se.Sheet, se.Available); s != "" {
		msg += fmt.Sprintf(" Did you mean %q?", s)
	}
	return msg
}

// Suggest returns the tab name closest to name, or "" when nothing is close.
func Suggest(name string, available []string) string {
	name = strings.TrimSpace(name)
	if name == "" || len(available) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindNormalizedFold(name, available)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", -1
	for _, candidate := range available {
		d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(candidate))
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist > len(name)/2 {
		return ""
	}
	return best
}
