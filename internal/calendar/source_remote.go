package calendar

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/username/holiday-api/pkg/random"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRemoteURL serves the community-maintained holiday-cn data set
	DefaultRemoteURL = "https://raw.githubusercontent.com/NateScarlet/holiday-cn/master/{year}.json"

	defaultHTTPTimeout = 10 * time.Second
	defaultRetries     = 3
	defaultRetryDelay  = time.Second
	maxDocumentSize    = 1 << 20

	// DefaultFirstYear is the first year published by holiday-cn
	DefaultFirstYear = 2007

	listTTL      = time.Hour
	listParallel = 4
)

// errPermanent marks responses that retrying cannot fix
var errPermanent = errors.New("permanent remote failure")

// RemoteSource downloads year documents over HTTP.
// The URL template must contain a {year} placeholder.
type RemoteSource struct {
	urlTemplate string
	httpClient  *http.Client
	retries     int
	retryDelay  time.Duration // grows linearly per attempt
	firstYear   int
	now         func() time.Time
	logger      *zap.Logger

	listMu     sync.Mutex
	listed     []int
	listExpiry time.Time
}

// NewRemoteSource creates a new RemoteSource instance
func NewRemoteSource(urlTemplate string, timeout time.Duration, logger *zap.Logger) *RemoteSource {
	if urlTemplate == "" {
		urlTemplate = DefaultRemoteURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &RemoteSource{
		urlTemplate: urlTemplate,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		firstYear:  DefaultFirstYear,
		now:        time.Now,
		logger:     logger,
	}
}

// SetFirstYear sets the first year probed by ListYears
func (rs *RemoteSource) SetFirstYear(year int) {
	if year > 0 {
		rs.firstYear = year
	}
}

// ReadYear downloads the document for the year, retrying transient failures
func (rs *RemoteSource) ReadYear(year int) ([]byte, error) {
	url := strings.ReplaceAll(rs.urlTemplate, "{year}", strconv.Itoa(year))

	var lastErr error
	for attempt := 1; attempt <= rs.retries; attempt++ {
		body, err := rs.fetchOnce(url, year)
		if err == nil {
			rs.logger.Info("Holiday data downloaded",
				zap.Int("year", year),
				zap.Int("bytes", len(body)))
			return body, nil
		}
		if errors.Is(err, ErrYearNotFound) || errors.Is(err, errPermanent) {
			return nil, err
		}

		lastErr = err
		rs.logger.Warn("Holiday data download failed, retrying",
			zap.Int("year", year),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", rs.retries),
			zap.Error(err))

		if attempt < rs.retries {
			time.Sleep(random.Jitter(rs.retryDelay*time.Duration(attempt), 20))
		}
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", rs.retries, lastErr)
}

// fetchOnce performs a single download
func (rs *RemoteSource) fetchOnce(url string, year int) ([]byte, error) {
	rs.logger.Debug("Downloading holiday data",
		zap.String("url", url),
		zap.Int("year", year))

	resp, err := rs.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holiday data: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d (%s)", ErrYearNotFound, year, url)
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("remote source returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: remote source returned status %d", errPermanent, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: document for %d exceeds %d bytes", errPermanent, year, maxDocumentSize)
	}

	return body, nil
}

// ListYears probes every year from the first year through next year and
// returns those the server has a document for. Results are kept for an hour.
func (rs *RemoteSource) ListYears() ([]int, error) {
	rs.listMu.Lock()
	defer rs.listMu.Unlock()

	now := rs.now()
	if rs.listed != nil && now.Before(rs.listExpiry) {
		return append([]int(nil), rs.listed...), nil
	}

	lastYear := now.Year() + 1
	if rs.firstYear > lastYear {
		return []int{}, nil
	}
	found := make([]bool, lastYear-rs.firstYear+1)

	var g errgroup.Group
	g.SetLimit(listParallel)
	for i := range found {
		i, year := i, rs.firstYear+i
		g.Go(func() error {
			ok, err := rs.probe(year)
			found[i] = ok
			return err
		})
	}
	err := g.Wait()

	years := make([]int, 0, len(found))
	for i, ok := range found {
		if ok {
			years = append(years, rs.firstYear+i)
		}
	}
	sort.Ints(years)

	if err != nil {
		return years, fmt.Errorf("failed to list remote years: %w", err)
	}

	rs.listed = years
	rs.listExpiry = now.Add(listTTL)
	rs.logger.Debug("Remote holiday years listed", zap.Ints("years", years))

	return append([]int(nil), years...), nil
}

// probe reports whether the server has a document for the year
func (rs *RemoteSource) probe(year int) (bool, error) {
	url := strings.ReplaceAll(rs.urlTemplate, "{year}", strconv.Itoa(year))

	resp, err := rs.httpClient.Get(url)
	if err != nil {
		return false, fmt.Errorf("probe %d: %w", year, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("probe %d: remote source returned status %d", year, resp.StatusCode)
	}
}

// Name identifies the source in logs
func (rs *RemoteSource) Name() string {
	return "remote"
}
