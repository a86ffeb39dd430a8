package replica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes bounds how much of a replica response is read.
const maxBodyBytes = 1 << 20

// entry is the JSON body a cache server returns for a key.
type entry struct {
	Key   uint64 `json:"key"`
	Value string `json:"value"`
}

// HTTPTransport talks to replicas over the cache REST API:
//
//	GET    /cache/{key}          200 {"key":..,"value":..}
//	PUT    /cache/{key}/{value}  200
//	DELETE /cache/{key}          204
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a transport using client, or http.DefaultClient if nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func baseURL(ep Endpoint) string {
	addr := ep.Addr()
	if !strings.Contains(ep.Base, "://") {
		addr = "http://" + addr
	}
	return addr
}

func keyURL(ep Endpoint, key uint64) string {
	return baseURL(ep) + "/cache/" + strconv.FormatUint(key, 10)
}

func (t *HTTPTransport) do(ctx context.Context, method, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func statusFromHTTP(code, want int) Status {
	switch code {
	case want:
		return StatusOK
	case http.StatusNotFound:
		return StatusNotFound
	default:
		return StatusError
	}
}

// Read fetches key from one replica.
func (t *HTTPTransport) Read(ctx context.Context, ep Endpoint, key uint64) (ReadResponse, error) {
	code, body, err := t.do(ctx, http.MethodGet, keyURL(ep, key))
	if err != nil {
		return ReadResponse{}, err
	}

	st := statusFromHTTP(code, http.StatusOK)
	if st != StatusOK {
		return ReadResponse{Status: st, Message: fmt.Sprintf("http %d", code)}, nil
	}

	var e entry
	if err := json.Unmarshal(body, &e); err != nil {
		return ReadResponse{Status: StatusError, Message: fmt.Sprintf("decode entry: %v", err)}, nil
	}
	return ReadResponse{Status: StatusOK, Value: e.Value}, nil
}

// Write stores key=value on one replica.
func (t *HTTPTransport) Write(ctx context.Context, ep Endpoint, key uint64, value string) (WriteResponse, error) {
	target := keyURL(ep, key) + "/" + url.PathEscape(value)
	code, _, err := t.do(ctx, http.MethodPut, target)
	if err != nil {
		return WriteResponse{}, err
	}
	st := statusFromHTTP(code, http.StatusOK)
	if st != StatusOK {
		return WriteResponse{Status: StatusError, Message: fmt.Sprintf("http %d", code)}, nil
	}
	return WriteResponse{Status: StatusOK}, nil
}

// Remove deletes key from one replica.
func (t *HTTPTransport) Remove(ctx context.Context, ep Endpoint, key uint64) (WriteResponse, error) {
	code, _, err := t.do(ctx, http.MethodDelete, keyURL(ep, key))
	if err != nil {
		return WriteResponse{}, err
	}
	st := statusFromHTTP(code, http.StatusNoContent)
	if st != StatusOK {
		return WriteResponse{Status: st, Message: fmt.Sprintf("http %d", code)}, nil
	}
	return WriteResponse{Status: StatusOK}, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
