package mailapi

import "time"

// Config holds mail backend API configuration
type Config struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// RecipientList is a named collection of recipient addresses, owned by the backend.
type RecipientList struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Recipient is one address belonging to exactly one list.
// Email is normalized lowercase by the backend.
type Recipient struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Sender is an account authorized to dispatch mail. It is eligible for
// dispatch only once an outbound address has been configured.
type Sender struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	OutboundEmail string `json:"outbound_email,omitempty"`
	SMTPHost      string `json:"smtp_host,omitempty"`
	SMTPPort      int    `json:"smtp_port,omitempty"`
	SSLEnabled    bool   `json:"ssl_enabled,omitempty"`
}

// Eligible reports whether the sender may be selected for dispatch.
func (s Sender) Eligible() bool {
	return s.OutboundEmail != ""
}

// OutboundConfig is the payload for updating a sender's outbound settings.
type OutboundConfig struct {
	OutboundEmail string `json:"outbound_email"`
	Password      string `json:"password,omitempty"`
	SMTPHost      string `json:"smtp_host"`
	SMTPPort      int    `json:"smtp_port"`
	SSLEnabled    bool   `json:"ssl_enabled"`
}

// Attachment is uploaded-file metadata. Binary storage lives on the backend;
// the console only carries the reference.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// SendRequest is the payload for dispatching one campaign.
// RequestID is a client-generated identifier so the backend can correlate
// duplicate submissions; the console itself never auto-retries a send.
type SendRequest struct {
	RequestID   string       `json:"request_id"`
	ListID      int64        `json:"list_id"`
	SenderIDs   []int64      `json:"sender_ids"`
	Subject     string       `json:"subject"`
	BodyHTML    string       `json:"body_html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SendResult is the backend's immutable outcome of one campaign send.
type SendResult struct {
	SendID          int64     `json:"send_id"`
	TotalRecipients int       `json:"total_recipients"`
	Sent            int       `json:"sent"`
	Bounced         int       `json:"bounced"`
	Batches         int       `json:"batches"`
	DurationSeconds float64   `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
	Message         string    `json:"message"`
}

// ImportSummary classifies every candidate of one import batch.
// Invariant: TotalDetected = Imported + DuplicatesInBatch + AlreadyInList + Malformed.
type ImportSummary struct {
	TotalDetected     int `json:"total_detected"`
	Imported          int `json:"imported"`
	DuplicatesInBatch int `json:"duplicates_in_batch"`
	AlreadyInList     int `json:"already_in_list"`
	Malformed         int `json:"malformed"`
}

// ValidationDetail is one address's domain-validity finding.
type ValidationDetail struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
	HasMx  bool   `json:"has_mx"`
}

// ValidationReport is the result of a domain validation pass over one list.
type ValidationReport struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Details []ValidationDetail `json:"details"`
}

// Send statuses as reported by the backend history endpoint.
const (
	SendStatusSending   = "sending"
	SendStatusCompleted = "completed"
	SendStatusError     = "error"
)

// SendRecord is one row of the backend's send history.
type SendRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	ListID    int64     `json:"list_id"`
	ListName  string    `json:"list_name,omitempty"`
	SenderID  int64     `json:"sender_id"`
	Username  string    `json:"username,omitempty"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Bounced   int       `json:"bounced"`
	Opened    int       `json:"opened"`
	Status    string    `json:"status"`
}

// SendDetailRow is one recipient-level outcome within a send.
type SendDetailRow struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SendDetails is a paginated slice of recipient-level outcomes for one send.
type SendDetails struct {
	Send      SendRecord      `json:"send"`
	Rows      []SendDetailRow `json:"rows"`
	Page      int             `json:"page"`
	PageSize  int             `json:"page_size"`
	TotalRows int             `json:"total_rows"`
}

// BackendStats holds the backend's aggregate sending statistics.
type BackendStats struct {
	TotalSends   int `json:"total_sends"`
	TotalSent    int `json:"total_sent"`
	TotalBounced int `json:"total_bounced"`
	TotalOpened  int `json:"total_opened"`
}
