package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vidtag/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// openSession opens videoPath on the server.
func openSession(ctx context.Context, client *HTTPClient, baseURL, videoPath string) error {
	resp, err := client.Post(ctx, baseURL+"/session", map[string]string{"video_path": videoPath})
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("open session failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// fetchEvents reads the current event list.
func fetchEvents(ctx context.Context, client *HTTPClient, baseURL string) ([]Entry, error) {
	resp, err := client.Get(ctx, baseURL+"/events")
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list events failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var out eventsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return out.Events, nil
}

// submitEvents submits events concurrently using a worker pool.
func submitEvents(ctx context.Context, config *Config, events []Event, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting events", logger.Int("count", len(events)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/events"

	var successful, failed, submitted atomic.Int64

	eventChan := make(chan Event, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range max(config.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				if err := submitSingleEvent(ctx, client, url, event); err != nil {
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "event rejected", logger.Error(err))
					}
				} else {
					successful.Add(1)
				}
				submitted.Add(1)
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted = int(submitted.Load())
	stats.EventsSuccessful = int(successful.Load())
	stats.EventsFailed = int(failed.Load())

	log.Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("failed", stats.EventsFailed))
}

// submitSingleEvent posts one event; anything but 201 is a failure.
func submitSingleEvent(ctx context.Context, client *HTTPClient, url string, event Event) error {
	resp, err := client.Post(ctx, url, event)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
