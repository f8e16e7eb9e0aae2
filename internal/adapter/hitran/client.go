package hitran

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/juju/ratelimit"
	"golang.org/x/text/encoding/charmap"

	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/logging"
)

// DefaultBaseURL is the HITRANonline host.
const DefaultBaseURL = "https://hitran.org"

// ErrUpstream wraps failures talking to the line database.
var ErrUpstream = errors.New("hitran upstream error")

// maxBodyBytes bounds a single API response.
const maxBodyBytes = 512 << 20

// Query selects the lines of one isotopologue in a wavenumber window.
type Query struct {
	MoleculeID     int
	IsotopologueID int
	NuMin          float64
	NuMax          float64
}

// Config configures a Client. Zero values take defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Isotopologues     *domain.IsotopologueTable
	HTTPClient        *http.Client
}

// Client fetches line lists from the HITRANonline API.
type Client struct {
	baseURL       string
	apiKey        string
	http          *http.Client
	bucket        *ratelimit.Bucket
	isotopologues *domain.IsotopologueTable
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Isotopologues == nil {
		cfg.Isotopologues = domain.NewIsotopologueTable()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		http:          hc,
		bucket:        ratelimit.NewBucketWithRate(cfg.RequestsPerSecond, 1),
		isotopologues: cfg.Isotopologues,
	}
}

// RequestURL builds the line-by-line API URL for q.
func (c *Client) RequestURL(q Query) (string, error) {
	iso, err := c.isotopologues.Lookup(q.MoleculeID, q.IsotopologueID)
	if err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("iso_ids_list", strconv.Itoa(iso.GlobalID))
	v.Set("numin", strconv.FormatFloat(q.NuMin, 'f', -1, 64))
	v.Set("numax", strconv.FormatFloat(q.NuMax, 'f', -1, 64))
	v.Set("fixwidth", "0")
	v.Set("request_params", "par_line")
	if c.apiKey != "" {
		v.Set("api_key", c.apiKey)
	}
	return c.baseURL + "/lbl/api?" + v.Encode(), nil
}

// Fetch downloads the lines matching q. The window is passed through as given;
// an empty or inverted window yields no lines and no error.
func (c *Client) Fetch(ctx context.Context, q Query) ([]domain.Line, error) {
	reqURL, err := c.RequestURL(q)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	lines, err := ParseParLines(decodeBody(body))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrUpstream, err)
	}

	// The API answers by global id; keep only the requested pair.
	out := lines[:0]
	for _, l := range lines {
		if l.MoleculeID == q.MoleculeID && l.IsotopologueID == q.IsotopologueID {
			out = append(out, l)
		}
	}

	logging.Debug("Fetched HITRAN lines",
		"molecule_id", q.MoleculeID,
		"isotopologue_id", q.IsotopologueID,
		"numin", q.NuMin,
		"numax", q.NuMax,
		"lines", len(out),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// wait blocks until the outbound bucket grants a request or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	d := c.bucket.Take(1)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Warn("Failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrUpstream, err)
	}
	return body, nil
}

// decodeBody returns a UTF-8 reader over body. Some mirrors serve Latin-1
// reference fields.
func decodeBody(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))
}
