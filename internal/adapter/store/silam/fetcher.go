// Package silam fetches and decodes SILAM pollen forecasts from the FMI THREDDS server.
package silam

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.ngs.io/pollen-api/internal/adapter/grid"
	"go.ngs.io/pollen-api/internal/adapter/projection"
)

// DefaultBaseURL is the NetCDF subset service of the SILAM Europe pollen dataset.
const DefaultBaseURL = "https://thredds.silam.fmi.fi/thredds/ncss/grid/silam_europe_pollen_v5_9/silam_europe_pollen_v5_9_best.ncd"

// MinTimeSteps is the shortest acceptable time axis: yesterday, today and two more days,
// so that a 72-hour window starting at any local midnight fits.
const MinTimeSteps = 96

// Bounding box of the SILAM Europe domain.
const (
	north = "75.950"
	west  = "-47.600"
	east  = "78.059"
	south = "19.003"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string       // NCSS endpoint, or file:// path to a local NetCDF file.
	Email      string       // Optional contact address passed to the data provider.
	HTTPClient *http.Client // Defaults to a client without timeout; use ctx to bound requests.
	Now        func() time.Time
}

// Client downloads the forecast and turns it into grid snapshots.
type Client struct {
	baseURL    string
	email      string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new SILAM client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		email:      cfg.Email,
		httpClient: cfg.HTTPClient,
		now:        cfg.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// RequestWindow returns the forecast interval requested at now: from midnight UTC
// of the previous day through the last hour of the third day after today.
func RequestWindow(now time.Time) (start, end time.Time) {
	y, m, d := now.UTC().Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	end = start.Add(4*24*time.Hour - time.Hour)
	return start, end
}

// RequestURL builds the subset query for the given window.
func (c *Client) RequestURL(start, end time.Time) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("?var=" + IndexVar + "&var=" + SourceVar)
	fmt.Fprintf(&b, "&north=%s&west=%s&east=%s&south=%s", north, west, east, south)
	b.WriteString("&horizStride=1&accept=netcdf4ext&addLatLon=true")
	fmt.Fprintf(&b, "&time_start=%s&time_end=%s",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if c.email != "" {
		b.WriteString("&email=" + url.QueryEscape(c.email))
	}
	return b.String()
}

// Fetch downloads the current forecast window and decodes it into a new snapshot.
// It performs exactly one request and never retries.
func (c *Client) Fetch(ctx context.Context) (*grid.Snapshot, error) {
	start, end := RequestWindow(c.now())

	path, cleanup, err := c.download(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	fields, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	if fields.Index.Times < MinTimeSteps {
		return nil, &DecodeError{
			Field:  IndexVar,
			Reason: fmt.Sprintf("time axis has %d steps, need at least %d", fields.Index.Times, MinTimeSteps),
		}
	}

	snap, err := grid.New(grid.Params{
		FetchedAt: c.now(),
		StartTime: start,
		LatAxis:   fields.LatAxis,
		LonAxis:   fields.LonAxis,
		Index:     fields.Index,
		Source:    fields.Source,
		Projector: projection.SILAMEurope(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return snap, nil
}

// download stores the response body in a temporary file, since NetCDF files
// can only be opened from disk. Local file:// URLs are used in place.
func (c *Client) download(ctx context.Context, start, end time.Time) (string, func(), error) {
	if strings.HasPrefix(c.baseURL, "file://") {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return "", nil, fmt.Errorf("invalid file URL %q: %w", c.baseURL, err)
		}
		log.Printf("Loading SILAM data from local file: %s", u.Path)
		return u.Path, func() {}, nil
	}

	reqURL := c.RequestURL(start, end)
	log.Printf("Fetching new data from SILAM: %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch SILAM data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	f, err := os.CreateTemp("", "silam-*.nc")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to read SILAM response: %w", err)
	}
	log.Printf("Downloaded %d bytes of SILAM data", n)

	return f.Name(), cleanup, nil
}
