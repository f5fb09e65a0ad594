package httpretry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDoer struct {
	responses []*http.Response
	errs      []error
	calls     int
	bodies    []string
}

func (s *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	i := s.calls
	s.calls++
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func resp(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func fastClient(d HTTPDoer, retries int) *RetryClient {
	rc := NewRetryClient(d, retries)
	rc.baseDelay = 1
	rc.maxDelay = 1
	return rc
}

func TestRetriesOnServerError(t *testing.T) {
	doer := &scriptedDoer{responses: []*http.Response{resp(503), resp(200)}}
	rc := fastClient(doer, 3)

	req, _ := http.NewRequest(http.MethodGet, "http://backend/lists", nil)
	got, err := rc.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 200, got.StatusCode)
	assert.Equal(t, 2, doer.calls)
}

func TestNoRetryOnClientError(t *testing.T) {
	doer := &scriptedDoer{responses: []*http.Response{resp(409)}}
	rc := fastClient(doer, 3)

	req, _ := http.NewRequest(http.MethodGet, "http://backend/lists", nil)
	got, err := rc.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 409, got.StatusCode)
	assert.Equal(t, 1, doer.calls)
}

func TestFinalAttemptReturnsResponse(t *testing.T) {
	doer := &scriptedDoer{responses: []*http.Response{resp(500), resp(500)}}
	rc := fastClient(doer, 1)

	req, _ := http.NewRequest(http.MethodGet, "http://backend/lists", nil)
	got, err := rc.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 500, got.StatusCode)
	assert.Equal(t, 2, doer.calls)
}

func TestRetriesTransientNetworkError(t *testing.T) {
	doer := &scriptedDoer{
		errs:      []error{errors.New("connection reset"), nil},
		responses: []*http.Response{nil, resp(200)},
	}
	rc := fastClient(doer, 3)

	req, _ := http.NewRequest(http.MethodGet, "http://backend/lists", nil)
	got, err := rc.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 200, got.StatusCode)
}

func TestBodyResetOnRetry(t *testing.T) {
	doer := &scriptedDoer{responses: []*http.Response{resp(502), resp(201)}}
	rc := fastClient(doer, 3)

	req, _ := http.NewRequest(http.MethodPost, "http://backend/lists",
		bytes.NewReader([]byte(`{"name":"clientes"}`)))
	_, err := rc.Do(req)
	require.NoError(t, err)
	require.Len(t, doer.bodies, 2)
	assert.Equal(t, doer.bodies[0], doer.bodies[1])
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doer := &scriptedDoer{responses: []*http.Response{resp(500)}}
	rc := fastClient(doer, 3)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://backend/lists", nil)
	_, err := rc.Do(req)
	assert.Error(t, err)
	assert.Equal(t, 0, doer.calls)
}
