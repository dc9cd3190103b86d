package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// small HTTP helper with sane timeouts and tiny retry.
type httpClient struct{ c *http.Client }

func newHTTP() *httpClient {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   8 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     60 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	return &httpClient{
		c: &http.Client{
			Timeout:   10 * time.Second,
			Transport: tr,
		},
	}
}

// getJSON fetches rawURL into dst with up to 3 attempts. The request is
// rebuilt per attempt so a consumed body never poisons a retry.
func (h *httpClient) getJSON(ctx context.Context, rawURL string, headers map[string]string, dst interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := h.c.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			continue
		}
		retryable := resp.StatusCode == 429 || resp.StatusCode >= 500
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				lastErr = json.NewDecoder(resp.Body).Decode(dst)
				return
			}
			var errObj map[string]any
			_ = json.NewDecoder(resp.Body).Decode(&errObj)
			lastErr = fmt.Errorf("http %d: %v", resp.StatusCode, errObj)
		}()
		if lastErr == nil {
			return nil
		}
		if !retryable {
			return lastErr
		}
		time.Sleep(time.Duration(500*(i+1)) * time.Millisecond)
	}
	return lastErr
}
