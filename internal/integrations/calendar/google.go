package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	logx "github.com/empowering-agents/server/pkg/logger"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Service is the narrow calendar surface the tool registry depends on. Every
// call returns either a payload map or an error; the caller maps errors to
// the degraded {enabled:false, reason} shape, so nothing past this boundary
// ever panics or raises into the turn.
type Service interface {
	ListUpcomingEvents(ctx context.Context, maxResults int) (map[string]any, error)
	CreateEvent(ctx context.Context, summary, startISO, endISO, timeZone string) (map[string]any, error)
	SuggestBlock(ctx context.Context, summary string, minutes int) (map[string]any, error)
}

// Client talks to the Google Calendar REST API on the primary calendar. The
// OAuth token must already exist on disk; token acquisition is out of scope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeZone   string
	now        func() time.Time
}

// NewClient builds a client from a stored OAuth token file.
func NewClient(ctx context.Context, tokenPath, timeZone string) (*Client, error) {
	tok, err := loadToken(expandUserPath(tokenPath))
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}
	src := oauth2.StaticTokenSource(tok)
	return &Client{
		httpClient: oauth2.NewClient(ctx, src),
		baseURL:    defaultBaseURL,
		timeZone:   timeZone,
		now:        time.Now,
	}, nil
}

// NewClientWithHTTP wires an explicit HTTP client and base URL. Test hook.
func NewClientWithHTTP(httpClient *http.Client, baseURL, timeZone string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeZone:   timeZone,
		now:        time.Now,
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s has no access token", path)
	}
	return &tok, nil
}

func expandUserPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return os.ExpandEnv(p)
}

// ListUpcomingEvents returns a compact summary of the next events on the
// primary calendar, ordered by start time.
func (c *Client) ListUpcomingEvents(ctx context.Context, maxResults int) (map[string]any, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	q := url.Values{}
	q.Set("timeMin", c.now().UTC().Format(time.RFC3339))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var payload struct {
		Items []struct {
			ID       string `json:"id"`
			Summary  string `json:"summary"`
			HTMLLink string `json:"htmlLink"`
			Start    struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/calendars/primary/events?"+q.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	events := make([]map[string]any, 0, len(payload.Items))
	for _, e := range payload.Items {
		start := e.Start.DateTime
		if start == "" {
			start = e.Start.Date
		}
		end := e.End.DateTime
		if end == "" {
			end = e.End.Date
		}
		events = append(events, map[string]any{
			"id":       e.ID,
			"summary":  e.Summary,
			"start":    start,
			"end":      end,
			"htmlLink": e.HTMLLink,
		})
	}
	return map[string]any{"enabled": true, "events": events}, nil
}

// CreateEvent inserts an event into the primary calendar and returns a
// compact view of the provider result.
func (c *Client) CreateEvent(ctx context.Context, summary, startISO, endISO, timeZone string) (map[string]any, error) {
	if timeZone == "" {
		timeZone = c.timeZone
	}
	body := map[string]any{
		"summary": summary,
		"start":   map[string]any{"dateTime": startISO, "timeZone": timeZone},
		"end":     map[string]any{"dateTime": endISO, "timeZone": timeZone},
	}

	var created struct {
		ID       string         `json:"id"`
		Summary  string         `json:"summary"`
		HTMLLink string         `json:"htmlLink"`
		Start    map[string]any `json:"start"`
		End      map[string]any `json:"end"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/calendars/primary/events", body, &created); err != nil {
		return nil, err
	}

	return map[string]any{
		"enabled": true,
		"event": map[string]any{
			"id":       created.ID,
			"summary":  created.Summary,
			"htmlLink": created.HTMLLink,
			"start":    created.Start,
			"end":      created.End,
		},
	}, nil
}

// SuggestBlock proposes a focus block starting in about 30 minutes. It is
// computed locally and never calls the provider.
func (c *Client) SuggestBlock(_ context.Context, summary string, minutes int) (map[string]any, error) {
	if summary == "" {
		summary = "Focus Block"
	}
	if minutes <= 0 {
		minutes = 30
	}
	start := c.now().UTC().Add(30 * time.Minute).Truncate(time.Second)
	end := start.Add(time.Duration(minutes) * time.Minute)

	return map[string]any{
		"suggestion": map[string]any{
			"summary":  summary,
			"start":    start.Format(time.RFC3339),
			"end":      end.Format(time.RFC3339),
			"timeZone": c.timeZone,
		},
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logx.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("calendar API call failed")
		return fmt.Errorf("calendar API %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Service = (*Client)(nil)
