package benefits

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tree-tracker/models"
	"tree-tracker/utils"
)

const defaultBaseURL = "https://api.itreetools.org/v2/CalculateBenefits"

// Client calls the i-Tree benefits API.
type Client struct {
	BaseURL    string
	Key        string
	HTTPClient *http.Client
	Retry      *utils.RetryConfig
	Logger     *utils.Logger
}

// NewClient creates a Client with a timeout-bound HTTP client and
// exponential back-off on transient failures.
func NewClient(baseURL, key string, timeout time.Duration, maxRetries int, logger *utils.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		Key:        key,
		HTTPClient: &http.Client{Timeout: timeout},
		Retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		Logger: logger,
	}
}

// Calculate fetches and parses the benefits for req. The raw response body
// is returned alongside the record, and also on parse failures.
func (c *Client) Calculate(ctx context.Context, req models.BenefitsRequest) (*models.BenefitRecord, []byte, error) {
	if strings.TrimSpace(c.Key) == "" {
		return nil, nil, fmt.Errorf("benefits: missing i-Tree API key")
	}
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	retry := c.Retry
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: c.Logger}
	}

	url := baseURL + "?" + Query(req, c.Key).Encode()
	c.logDebug("[itree] GET species=%s dbh=%s state=%s city=%s", req.SpeciesCode, req.DBH, req.StateAbbr, req.CityName)

	var body []byte
	err := retry.Do(ctx, "itree-calculate", func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return utils.Permanent(fmt.Errorf("create i-Tree request: %w", err))
		}
		httpReq.Header.Set("Accept", "application/xml, text/xml")

		resp, err := httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(ctx.Err())
			}
			return fmt.Errorf("execute i-Tree request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read i-Tree response: %w", err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("i-Tree request failed with status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body = data
			return utils.Permanent(fmt.Errorf("i-Tree request failed with status %d", resp.StatusCode))
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, body, fmt.Errorf("benefits: %w", err)
	}

	record, err := Parse(body)
	if err != nil {
		return nil, body, err
	}
	c.logDebug("[itree] parsed %d benefits", record.Len())
	return record, body, nil
}

func (c *Client) logDebug(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(format, args...)
	}
}
