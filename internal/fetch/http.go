package fetch

import (
	"context"
	"io"
	"net/http"
)

// HTTPSource fetches parts with plain GET requests. A part is exactly one
// object on the remote store, so no Range headers are involved.
type HTTPSource struct {
	client *Client
}

func NewHTTPSource(client *Client) *HTTPSource {
	return &HTTPSource{client: client}
}

func (h *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &ServerError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &ServerError{URL: url, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServerError{URL: url, Err: err}
	}
	if len(data) == 0 {
		return nil, &ServerError{URL: url, Err: errEmptyBody}
	}
	return data, nil
}
