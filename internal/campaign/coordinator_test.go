package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-console/internal/mailapi"
)

type fakeSendAPI struct {
	mu      sync.Mutex
	delay   time.Duration
	result  *mailapi.SendResult
	err     error
	calls   int
	lastReq mailapi.SendRequest
}

func (f *fakeSendAPI) SendCampaign(ctx context.Context, req mailapi.SendRequest) (*mailapi.SendResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	delay, result, err := f.delay, f.result, f.err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *fakeSendAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func eligibleSenders(n int) []mailapi.Sender {
	senders := make([]mailapi.Sender, n)
	for i := range senders {
		senders[i] = mailapi.Sender{
			ID:            int64(i + 1),
			Username:      "sender",
			OutboundEmail: "outbound@example.com",
		}
	}
	return senders
}

func readyCoordinator(api SendAPI, watchdog time.Duration) *Coordinator {
	c := NewCoordinator(api, 400, watchdog)
	c.StartDraft(7)
	c.SetListSize(120)
	c.SelectSenders(eligibleSenders(1))
	c.UpdateContent("Spring offers", "<p>Fresh deals inside</p>")
	return c
}

func TestSubmitPreconditionOrder(t *testing.T) {
	api := &fakeSendAPI{result: &mailapi.SendResult{SendID: 1}}
	c := NewCoordinator(api, 400, time.Second)

	// Everything missing: the list check wins and nothing hits the network.
	c.UpdateContent("", "<p></p>")
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoListSelected)
	assert.Equal(t, 0, api.callCount())
	assert.Equal(t, StateIdle, c.Status().State)

	c.StartDraft(7)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoSenderSelected)

	c.SetListSize(850)
	c.SelectSenders(eligibleSenders(2))
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientSenders)

	c.SelectSenders(eligibleSenders(3))
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptySubject)

	c.UpdateContent("Subject", "<p></p>")
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyBody)

	c.UpdateContent("Subject", "<p>&nbsp;</p>")
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyBody)

	assert.Equal(t, 0, api.callCount(), "precondition failures must never reach the network")
}

func TestSubmitIneligibleSenderNamed(t *testing.T) {
	api := &fakeSendAPI{result: &mailapi.SendResult{SendID: 1}}
	c := NewCoordinator(api, 400, time.Second)
	c.StartDraft(7)
	c.SetListSize(10)
	c.SelectSenders([]mailapi.Sender{{ID: 1, Username: "nomail"}})
	c.UpdateContent("Subject", "<p>body</p>")

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrIneligibleSender)
	assert.Contains(t, err.Error(), "nomail")
	assert.Equal(t, 0, api.callCount())
	assert.Equal(t, "IneligibleSenderSelected", ErrorCode(err))
}

func TestSubmitUnknownListSizeSkipsCapacityCheck(t *testing.T) {
	// One sender is enough while the count fetch has not resolved.
	api := &fakeSendAPI{result: &mailapi.SendResult{SendID: 5, Sent: 10}}
	c := NewCoordinator(api, 400, time.Second)
	c.StartDraft(7)
	c.SelectSenders(eligibleSenders(1))
	c.UpdateContent("Subject", "<p>body</p>")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount())
}

func TestSubmitSuccessClearsDraft(t *testing.T) {
	api := &fakeSendAPI{result: &mailapi.SendResult{SendID: 42, Sent: 118, Bounced: 2}}
	c := readyCoordinator(api, time.Second)
	c.AddAttachment(mailapi.Attachment{URL: "https://cdn.example.com/a.pdf", Name: "a.pdf"})

	result, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.SendID)

	snap := c.Status()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Empty(t, snap.Subject, "draft content is cleared on success")
	assert.Empty(t, snap.Attachments)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 118, snap.Result.Sent)
	assert.False(t, snap.Advisory)

	// A successful draft is terminal until a new one starts.
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDraftComplete)

	c.StartDraft(8)
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	api := &fakeSendAPI{err: &mailapi.APIError{StatusCode: 502, Message: "relay unavailable"}}
	c := readyCoordinator(api, time.Second)

	_, err := c.Submit(context.Background())
	require.Error(t, err)

	snap := c.Status()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "relay unavailable", snap.Error, "backend message passes through verbatim")
	assert.Equal(t, "Spring offers", snap.Subject, "draft survives a failed send")
	assert.False(t, snap.Advisory)

	// Failed is re-entrant: the operator corrects and resubmits.
	api.mu.Lock()
	api.err = nil
	api.result = &mailapi.SendResult{SendID: 9, Sent: 120}
	api.mu.Unlock()

	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, c.Status().State)
}

func TestSubmitGenericFallbackMessage(t *testing.T) {
	api := &fakeSendAPI{err: errors.New("dial tcp: connection refused")}
	c := readyCoordinator(api, time.Second)

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	snap := c.Status()
	assert.Equal(t, StateFailed, snap.State)
	assert.NotContains(t, snap.Error, "dial tcp", "transport details are not operator-facing")
}

func TestSubmitRejectsReentry(t *testing.T) {
	api := &fakeSendAPI{delay: 150 * time.Millisecond, result: &mailapi.SendResult{SendID: 1}}
	c := readyCoordinator(api, time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	// Wait until the first submission is in flight.
	require.Eventually(t, func() bool {
		return c.Status().State == StateSending
	}, time.Second, 5*time.Millisecond)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSendInFlight)

	require.NoError(t, <-done)
	assert.Equal(t, 1, api.callCount())
}

func TestStaleSendOutcomeDoesNotTouchNewDraft(t *testing.T) {
	api := &fakeSendAPI{delay: 150 * time.Millisecond, result: &mailapi.SendResult{SendID: 1}}
	c := readyCoordinator(api, time.Second)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		c.Submit(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return c.Status().State == StateSending
	}, time.Second, 5*time.Millisecond)

	// Abandon the in-flight send and start over on another list.
	c.StartDraft(99)
	c.UpdateContent("new subject", "<p>new body</p>")

	<-done

	// The old send resolved after the draft switch; its outcome must not
	// flip the state, clear the new content, or leave its result behind.
	snap := c.Status()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, int64(99), snap.ListID)
	assert.Equal(t, "new subject", snap.Subject)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Error)
}

func TestWatchdogNotRaisedOnFastResolve(t *testing.T) {
	api := &fakeSendAPI{delay: 10 * time.Millisecond, result: &mailapi.SendResult{SendID: 1}}
	c := readyCoordinator(api, 100*time.Millisecond)

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Status().Advisory)

	// Even after the timer would have fired, no stale advisory appears.
	time.Sleep(150 * time.Millisecond)
	assert.False(t, c.Status().Advisory)
}

func TestWatchdogRaisedThenClearedOnSlowResolve(t *testing.T) {
	api := &fakeSendAPI{delay: 120 * time.Millisecond, result: &mailapi.SendResult{SendID: 1}}
	c := readyCoordinator(api, 30*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return c.Status().Advisory
	}, time.Second, 5*time.Millisecond, "advisory should appear while the send is slow")

	require.NoError(t, <-done)
	assert.False(t, c.Status().Advisory, "advisory disappears the instant the send resolves")
	assert.Equal(t, StateSucceeded, c.Status().State)
}

func TestWatchdogClearedOnFailure(t *testing.T) {
	api := &fakeSendAPI{delay: 120 * time.Millisecond, err: &mailapi.APIError{StatusCode: 500}}
	c := readyCoordinator(api, 30*time.Millisecond)

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.False(t, c.Status().Advisory)
	assert.Equal(t, StateFailed, c.Status().State)
}

func TestCloseCancelsPendingWatchdog(t *testing.T) {
	api := &fakeSendAPI{delay: 200 * time.Millisecond, result: &mailapi.SendResult{SendID: 1}}
	c := readyCoordinator(api, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return c.Status().State == StateSending
	}, time.Second, 5*time.Millisecond)

	c.Close()
	time.Sleep(80 * time.Millisecond)
	assert.False(t, c.Status().Advisory, "no advisory may fire after teardown")

	<-done
}

func TestSubmitSendRequestPayload(t *testing.T) {
	api := &fakeSendAPI{result: &mailapi.SendResult{SendID: 1}}
	c := NewCoordinator(api, 400, time.Second)
	c.StartDraft(7)
	c.SetListSize(500)
	c.SelectSenders(eligibleSenders(2))
	c.UpdateContent("  Subject with spaces  ", "<p>body</p>")
	c.AddAttachment(mailapi.Attachment{URL: "https://cdn.example.com/x.png", Name: "x.png"})

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	api.mu.Lock()
	req := api.lastReq
	api.mu.Unlock()

	assert.Equal(t, int64(7), req.ListID)
	assert.Equal(t, []int64{1, 2}, req.SenderIDs)
	assert.Equal(t, "Subject with spaces", req.Subject)
	assert.NotEmpty(t, req.RequestID)
	assert.Len(t, req.Attachments, 1)
}
