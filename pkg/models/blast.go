package models

// Recipient is one (phone, message) pair in a blast. Phone is free-form
// input; everything but digits is stripped before it is used.
type Recipient struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BlastRequest is the payload for POST /v1/blast.
type BlastRequest struct {
	Recipients []Recipient `json:"recipients"`
	DelayMs    int64       `json:"delayMs,omitempty"`
}

// BlastResponse aggregates per-recipient outcomes. FailCount keeps the
// legacy rejected+failed aggregate for callers that only consume totals.
type BlastResponse struct {
	BatchID       string `json:"batchId"`
	SuccessCount  int    `json:"successCount"`
	RejectedCount int    `json:"rejectedCount"`
	FailedCount   int    `json:"failedCount"`
	FailCount     int    `json:"failCount"`
	DelayUsedMs   int64  `json:"delayUsedMs"`
}

// ProgressEvent is broadcast over the /v1/blast/ws stream after every
// send attempt in a running batch.
type ProgressEvent struct {
	BatchID       string `json:"batchId"`
	Index         int    `json:"index"`
	Total         int    `json:"total"`
	Phone         string `json:"phone"`
	Outcome       string `json:"outcome"`
	SuccessCount  int    `json:"successCount"`
	RejectedCount int    `json:"rejectedCount"`
	FailedCount   int    `json:"failedCount"`
}
