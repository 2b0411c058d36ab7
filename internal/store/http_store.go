package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// HTTPStore talks to a JSON-over-HTTP tree store where every collection is
// addressed as <base>/<path><suffix>: readings are appended with POST and
// read back as a keyed map, health records are overwritten with PUT.
type HTTPStore struct {
	base         *url.URL
	readings     string
	health       string
	config       string
	suffix       string
	historyLimit int

	client        *BaseClient
	once          *http.Client
	configTimeout time.Duration
	validate      *validator.Validate
}

// NewHTTPStore builds a store from cfg. Opts tune the retrying client.
func NewHTTPStore(cfg config.Store, opts ...BaseClientOption) (*HTTPStore, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("store url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("store url %q: scheme and host required", cfg.URL)
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	policy := DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		policy = RetryPolicy{Attempts: cfg.RetryAttempts, Backoff: FixedBackoff(cfg.RetryDelay)}
	}
	return &HTTPStore{
		base:          base,
		readings:      cfg.Readings,
		health:        cfg.Health,
		config:        cfg.Config,
		suffix:        cfg.Suffix,
		historyLimit:  cfg.HistoryLimit,
		client:        NewBaseClient(httpClient, "store", policy, opts...),
		once:          httpClient,
		configTimeout: cfg.ConfigTimeout,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *HTTPStore) endpoint(parts ...string) string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(parts, "/") + s.suffix
	return u.String()
}

// FetchHistory reads every stored reading, drops malformed rows and returns
// the rest oldest first.
func (s *HTTPStore) FetchHistory(ctx context.Context) (telemetry.Series, error) {
	target := s.endpoint(s.readings)
	if s.historyLimit > 0 {
		q := url.Values{}
		q.Set("orderBy", `"$key"`)
		q.Set("limitToLast", strconv.Itoa(s.historyLimit))
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Method: req.Method, URL: target, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return DecodeHistory(data)
}

// AppendReading posts r to the readings collection.
func (s *HTTPStore) AppendReading(ctx context.Context, r telemetry.Reading) error {
	if err := s.validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.send(ctx, s.client.Do, http.MethodPost, s.endpoint(s.readings), r)
}

// PutHealth overwrites the health record for the summary's device. It makes
// a single attempt.
func (s *HTTPStore) PutHealth(ctx context.Context, h telemetry.HealthSummary) error {
	if h.DeviceID == "" {
		return fmt.Errorf("%w: health summary without device id", ErrValidation)
	}
	return s.send(ctx, s.once.Do, http.MethodPut, s.endpoint(s.health, url.PathEscape(h.DeviceID)), h)
}

// FetchThresholds reads the remote config document and returns its
// thresholds block. A missing document or block yields empty overrides.
func (s *HTTPStore) FetchThresholds(ctx context.Context) (config.ThresholdOverrides, error) {
	ctx, cancel := context.WithTimeout(ctx, s.configTimeout)
	defer cancel()

	target := s.endpoint(s.config)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return config.ThresholdOverrides{}, err
	}
	resp, err := s.once.Do(req)
	if err != nil {
		return config.ThresholdOverrides{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return config.ThresholdOverrides{}, &StatusError{Method: req.Method, URL: target, Code: resp.StatusCode}
	}
	var doc struct {
		Thresholds *config.ThresholdOverrides `json:"thresholds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return config.ThresholdOverrides{}, fmt.Errorf("decode config: %w", err)
	}
	if doc.Thresholds == nil {
		return config.ThresholdOverrides{}, nil
	}
	return *doc.Thresholds, nil
}

func (s *HTTPStore) send(ctx context.Context, do func(*http.Request) (*http.Response, error), method, target string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}
	return nil
}
