package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/outlinehq/outline/providers/observability"
)

// maxResponseBodySize caps how much of a response body is read into memory
// (10 MB). Enforced with io.LimitReader so a rogue endpoint cannot force an
// unbounded allocation.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is a single HTTP header to apply to an outbound request.
// Options are applied after the defaults, so a HeaderOption can override
// Authorization when a provider authenticates with a custom scheme.
type HeaderOption struct {
	Key   string
	Value string
}

// CloseWithLog closes c and logs a warning if the close fails. It is meant
// for defer sites where a close error must not override the primary error.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// DoPostJSON performs a synchronous HTTP POST with a JSON body and decodes
// the JSON response into OutputStruct.
//
// Error handling:
//   - context cancellation and network failures propagate as TransportError-ish
//     wrapped errors for the caller to classify
//   - non-2xx responses return an error that includes the status and body so
//     upstream layers can detect authentication failures
//   - decode failures include a response preview for debugging
//
// The response body is always closed before returning.
func DoPostJSON[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, "POST"),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, string(respBody))
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return res, &resStruct, nil
}

// DoPostSSE performs an HTTP POST and returns the response with the body left
// open for Server-Sent-Events reading. The caller owns the body and must
// close it when done. On error paths the body is consumed and closed before
// returning.
func DoPostSSE(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPMethod, "POST"),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.stream_request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	// Non-2xx responses never carry a stream; read the (bounded) body so the
	// error message includes whatever the provider said went wrong.
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			return response, fmt.Errorf("non-2xx status %d (failed to read body: %v)", response.StatusCode, readErr)
		}
		return response, fmt.Errorf("non-2xx status %d: %s", response.StatusCode, string(errorBody))
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	return response, nil
}
