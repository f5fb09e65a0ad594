package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/logger"
)

// State is the dispatch lifecycle position of the current draft.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSending    State = "sending"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// DefaultWatchdogDelay is how long a send may run before the slow-send
// advisory is surfaced.
const DefaultWatchdogDelay = 5 * time.Second

// SendAPI is the slice of the backend client the coordinator needs.
type SendAPI interface {
	SendCampaign(ctx context.Context, req mailapi.SendRequest) (*mailapi.SendResult, error)
}

// Coordinator drives the send lifecycle of a single campaign draft:
// Idle → Validating → Sending → Succeeded | Failed. Succeeded and Failed are
// terminal for the draft; StartDraft returns the machine to Idle.
//
// While Sending, a watchdog timer runs concurrently with the request. If the
// request has not resolved when the timer fires, a non-blocking advisory is
// raised directing the operator to the history view. The advisory never
// affects the request itself and is cleared the instant the request resolves.
type Coordinator struct {
	api           SendAPI
	perSenderCap  int
	watchdogDelay time.Duration

	mu         sync.Mutex
	generation uint64 // bumped by StartDraft; outcomes from older drafts are discarded
	state      State
	draft      Draft
	senders    []mailapi.Sender
	listSize   int // -1 while unknown
	result     *mailapi.SendResult
	errMsg     string
	advisory   bool
	cancelWD   func()
}

// NewCoordinator creates a coordinator in the Idle state.
func NewCoordinator(api SendAPI, perSenderCap int, watchdogDelay time.Duration) *Coordinator {
	if perSenderCap <= 0 {
		perSenderCap = DefaultPerSenderCap
	}
	if watchdogDelay <= 0 {
		watchdogDelay = DefaultWatchdogDelay
	}
	return &Coordinator{
		api:           api,
		perSenderCap:  perSenderCap,
		watchdogDelay: watchdogDelay,
		state:         StateIdle,
		listSize:      -1,
	}
}

// StartDraft discards the current draft and begins a new one for the given
// list. The list size is unknown until SetListSize is called.
func (c *Coordinator) StartDraft(listID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSending {
		// The in-flight send keeps running; its result belongs to the old
		// draft and is dropped when it resolves.
		logger.Warn("new draft started while a send is in flight", "list_id", listID)
	}
	c.cancelWatchdogLocked()
	c.generation++
	c.state = StateIdle
	c.draft = Draft{ListID: listID}
	c.senders = nil
	c.listSize = -1
	c.result = nil
	c.errMsg = ""
	c.advisory = false
}

// SetListSize records the recipient count once the count fetch resolves.
// Pass a negative value to mark the size unknown again.
func (c *Coordinator) SetListSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listSize = n
}

// UpdateContent sets the draft's subject and HTML body.
func (c *Coordinator) UpdateContent(subject, bodyHTML string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Subject = subject
	c.draft.BodyHTML = bodyHTML
}

// SelectSenders replaces the draft's sender selection with the resolved
// sender accounts. Eligibility is checked at submission.
func (c *Coordinator) SelectSenders(senders []mailapi.Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders = append([]mailapi.Sender(nil), senders...)
	ids := make([]int64, len(senders))
	for i, s := range senders {
		ids[i] = s.ID
	}
	c.draft.SenderIDs = ids
}

// AddAttachment appends uploaded attachment metadata to the draft.
func (c *Coordinator) AddAttachment(att mailapi.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Attachments = append(c.draft.Attachments, att)
}

// RemoveAttachment removes the attachment at the given position.
func (c *Coordinator) RemoveAttachment(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.draft.Attachments) {
		return
	}
	c.draft.Attachments = append(c.draft.Attachments[:index], c.draft.Attachments[index+1:]...)
}

// Submit validates the draft and dispatches it. Exactly one send request is
// issued per successful validation; a second submission while Sending is
// rejected with ErrSendInFlight. Precondition violations are returned before
// any network call and leave the draft untouched.
func (c *Coordinator) Submit(ctx context.Context) (*mailapi.SendResult, error) {
	c.mu.Lock()

	switch c.state {
	case StateSending, StateValidating:
		c.mu.Unlock()
		return nil, ErrSendInFlight
	case StateSucceeded:
		c.mu.Unlock()
		return nil, ErrDraftComplete
	}

	entry := c.state
	c.state = StateValidating
	if err := c.checkPreconditionsLocked(); err != nil {
		c.state = entry
		c.mu.Unlock()
		return nil, err
	}

	req := mailapi.SendRequest{
		RequestID:   uuid.New().String(),
		ListID:      c.draft.ListID,
		SenderIDs:   append([]int64(nil), c.draft.SenderIDs...),
		Subject:     strings.TrimSpace(c.draft.Subject),
		BodyHTML:    c.draft.BodyHTML,
		Attachments: append([]mailapi.Attachment(nil), c.draft.Attachments...),
	}

	c.state = StateSending
	c.result = nil
	c.errMsg = ""
	gen := c.generation
	cancel := c.spawnWatchdog()
	c.cancelWD = cancel
	c.mu.Unlock()

	logger.Info("campaign send dispatched",
		"request_id", req.RequestID,
		"list_id", req.ListID,
		"senders", len(req.SenderIDs))

	result, err := c.api.SendCampaign(ctx, req)

	// The watchdog must not outlive the request on any exit path.
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		// A new draft was started while this send ran; its outcome belongs
		// to the old draft and must not touch the current one.
		logger.Info("discarding send outcome for superseded draft", "request_id", req.RequestID)
		return result, err
	}

	c.advisory = false
	c.cancelWD = nil

	if err != nil {
		c.state = StateFailed
		c.errMsg = userMessage(err)
		logger.Error("campaign send failed", "request_id", req.RequestID, "error", err.Error())
		return nil, err
	}

	c.state = StateSucceeded
	c.result = result
	c.draft.reset()
	logger.Info("campaign send completed",
		"request_id", req.RequestID,
		"send_id", result.SendID,
		"sent", result.Sent,
		"bounced", result.Bounced)
	return result, nil
}

// checkPreconditionsLocked runs the named submission checks in order. The
// first violation wins; none of them touch the network.
func (c *Coordinator) checkPreconditionsLocked() error {
	if c.draft.ListID == 0 {
		return ErrNoListSelected
	}
	if len(c.senders) == 0 {
		return ErrNoSenderSelected
	}
	if c.listSize >= 0 {
		required := RequiredSenders(c.listSize, c.perSenderCap)
		if len(c.senders) < required {
			return fmt.Errorf("list has %d recipients, at least %d senders required (max %d recipients per sender): %w",
				c.listSize, required, c.perSenderCap, ErrInsufficientSenders)
		}
	}
	if strings.TrimSpace(c.draft.Subject) == "" {
		return ErrEmptySubject
	}
	if renderedText(c.draft.BodyHTML) == "" {
		return ErrEmptyBody
	}
	for _, s := range c.senders {
		if !s.Eligible() {
			return fmt.Errorf("sender %q: %w", s.Username, ErrIneligibleSender)
		}
	}
	return nil
}

// spawnWatchdog starts the slow-send timer. The returned cancel function is
// idempotent and must be called on every exit path, including teardown.
func (c *Coordinator) spawnWatchdog() func() {
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		timer := time.NewTimer(c.watchdogDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.mu.Lock()
			if c.state == StateSending {
				c.advisory = true
				logger.Info("send running longer than expected, advisory raised")
			}
			c.mu.Unlock()
		case <-done:
		}
	}()

	return cancel
}

func (c *Coordinator) cancelWatchdogLocked() {
	if c.cancelWD != nil {
		c.cancelWD()
		c.cancelWD = nil
	}
	c.advisory = false
}

// Close tears the coordinator down, cancelling any pending watchdog so no
// timer fires after the draft is gone.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelWatchdogLocked()
}

// Snapshot is a point-in-time view of the coordinator for the UI.
type Snapshot struct {
	State           State                `json:"state"`
	Advisory        bool                 `json:"advisory"`
	ListID          int64                `json:"list_id"`
	ListSize        *int                 `json:"list_size,omitempty"`
	RequiredSenders int                  `json:"required_senders"`
	SelectedSenders int                  `json:"selected_senders"`
	Subject         string               `json:"subject"`
	Attachments     []mailapi.Attachment `json:"attachments,omitempty"`
	Result          *mailapi.SendResult  `json:"result,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// Status returns the current state for display.
func (c *Coordinator) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:           c.state,
		Advisory:        c.advisory,
		ListID:          c.draft.ListID,
		RequiredSenders: RequiredSenders(c.listSize, c.perSenderCap),
		SelectedSenders: len(c.senders),
		Subject:         c.draft.Subject,
		Attachments:     append([]mailapi.Attachment(nil), c.draft.Attachments...),
		Result:          c.result,
		Error:           c.errMsg,
	}
	if c.listSize >= 0 {
		size := c.listSize
		snap.ListSize = &size
	}
	return snap
}

// userMessage extracts the operator-facing text for a failed send: the
// backend's own message verbatim when available, a generic fallback
// otherwise.
func userMessage(err error) string {
	var apiErr *mailapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "send failed, please check the history view and try again"
}
