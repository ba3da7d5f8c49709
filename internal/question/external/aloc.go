package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/prepdesk/exam-platform/internal/question"
)

const (
	defaultRetryBase = 500 * time.Millisecond
	maxRetries       = 2 // 3 attempts total
	examType         = "utme"
)

// ALOCClient fetches exam questions from the ALOC question service
// (needs API key env QUESTION_API_ACCESS_TOKEN).
type ALOCClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	retryBase   time.Duration
}

func NewALOCClient(baseURL, accessToken string, httpClient *http.Client, retryBase time.Duration) *ALOCClient {
	if baseURL == "" {
		baseURL = "https://questions.aloc.com.ng/api/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &ALOCClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
		retryBase:   retryBase,
	}
}

// alocEnvelope wraps every ALOC response; data is a single object for
// count=1 requests and an array otherwise.
type alocEnvelope struct {
	Subject string          `json:"subject"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// FetchBatch requests exactly count questions for a subject, optionally
// pinned to an exam year. Transient failures are retried with linear backoff.
func (c *ALOCClient) FetchBatch(ctx context.Context, subject string, count int, year string) ([]question.RawRecord, error) {
	values := url.Values{}
	values.Set("subject", subject)
	values.Set("type", examType)
	if year != "" {
		values.Set("year", year)
	}
	endpoint := fmt.Sprintf("%s/q/%d?%s", c.baseURL, count, values.Encode())
	return c.fetch(ctx, endpoint)
}

// FetchBulk requests the provider's undifferentiated batch for a subject;
// the endpoint honors no count parameter.
func (c *ALOCClient) FetchBulk(ctx context.Context, subject string) ([]question.RawRecord, error) {
	values := url.Values{}
	values.Set("subject", subject)
	values.Set("type", examType)
	endpoint := fmt.Sprintf("%s/m?%s", c.baseURL, values.Encode())
	return c.fetch(ctx, endpoint)
}

func (c *ALOCClient) fetch(ctx context.Context, endpoint string) ([]question.RawRecord, error) {
	var records []question.RawRecord

	backoff := retry.WithMaxRetries(maxRetries, linearBackoff(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		batch, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return retry.RetryableError(err)
		}
		records = batch
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aloc fetch %s: %w", endpoint, err)
	}
	return records, nil
}

func (c *ALOCClient) doRequest(ctx context.Context, endpoint string) ([]question.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("AccessToken", c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("aloc non-200: %d", resp.StatusCode)
	}

	var payload alocEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return decodeRecords(payload.Data)
}

func decodeRecords(data json.RawMessage) ([]question.RawRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []question.RawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var single question.RawRecord
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode aloc payload: %w", err)
	}
	return []question.RawRecord{single}, nil
}

// linearBackoff grows the delay by one base step per attempt.
func linearBackoff(base time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}
