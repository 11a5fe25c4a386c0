// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package scan implements the scan-and-register workflow. The
// controller consumes decoded code strings from a reader, submits at
// most one attendance request per distinct code, and exposes a single
// current outcome to the UI.
//
// All entry points are meant to be called from the UI event loop; the
// controller serializes one code's lifecycle at a time and needs no
// locking of its own. The network call itself runs off the loop (see
// Submit) and its result is applied with Resolve.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
)

// State is the controller's position in the scan workflow.
type State int

const (
	// Idle: no reader active, no network activity.
	Idle State = iota
	// Scanning: reader active, no code in flight.
	Scanning
	// Submitting: exactly one request in flight; every further decode
	// is ignored until it resolves.
	Submitting
	// ResolvedSuccess and ResolvedFailure display the outcome until the
	// cooldown elapses, then fall back to Scanning.
	ResolvedSuccess
	ResolvedFailure
)

// Cooldowns gate how long the last handled code stays suppressed after
// a resolution. Long enough for the reader to stop emitting the same
// stationary code, short enough that a genuinely new code is accepted
// promptly.
const (
	SuccessCooldown = 1500 * time.Millisecond
	FailureCooldown = 3 * time.Second
)

// OutcomeKind classifies the current user-facing message.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeInfo
	OutcomeSuccess
	OutcomeError
)

// Outcome is the single current message the UI renders.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Submitter sends one scan to the service. *api.Client satisfies this.
type Submitter interface {
	SubmitScan(ctx context.Context, code string) (model.Meeting, error)
}

// Submission identifies one in-flight request. Session ties it to the
// scan session that issued it so results arriving after Stop/Start are
// discarded.
type Submission struct {
	Session string
	Code    string
}

// Result is the terminal outcome of one submission.
type Result struct {
	Submission
	Meeting model.Meeting
	Err     error
}

// Resolution tells the caller what to schedule after Resolve: whether
// to refresh the attendance list and when the cooldown expires.
type Resolution struct {
	Refresh       bool
	CooldownUntil time.Time
}

// Controller is the scan state machine.
type Controller struct {
	submitter Submitter

	state         State
	session       string
	lastCode      string
	outcome       Outcome
	pending       *Submission
	cooldownUntil time.Time

	// attendance records known to the client, used for the local
	// duplicate check. The service stays authoritative; this only saves
	// a round trip for codes already known to be registered.
	attendances []model.AttendanceRecord
	// codes registered during this scan session, so a successful submit
	// counts as registered even before the attendance refresh lands.
	registered map[string]bool

	now func() time.Time
}

// New creates an idle controller submitting through s.
func New(s Submitter) *Controller {
	return &Controller{
		submitter:  s,
		state:      Idle,
		registered: map[string]bool{},
		now:        time.Now,
	}
}

// State returns the current workflow state, accounting for an elapsed
// cooldown.
func (c *Controller) State() State {
	c.maybeExpire()
	return c.state
}

// Outcome returns the message the UI should display.
func (c *Controller) Outcome() Outcome {
	c.maybeExpire()
	return c.outcome
}

// LastCode returns the code currently suppressed from resubmission.
func (c *Controller) LastCode() string {
	c.maybeExpire()
	return c.lastCode
}

// Session identifies the current scan session, or "" when idle.
func (c *Controller) Session() string {
	return c.session
}

// SetAttendances replaces the attendance records used for the local
// duplicate check.
func (c *Controller) SetAttendances(records []model.AttendanceRecord) {
	c.attendances = records
}

// Start opens a new scan session. Per-code tracking from any earlier
// session is dropped.
func (c *Controller) Start() {
	c.session = uuid.NewString()
	c.state = Scanning
	c.lastCode = ""
	c.pending = nil
	c.registered = map[string]bool{}
	c.outcome = Outcome{Kind: OutcomeInfo, Message: i18n.T("scan.prompt")}
}

// Stop returns to Idle from any state and clears all per-code tracking.
// An in-flight submit is not aborted; its result is discarded because
// the session id changes.
func (c *Controller) Stop() {
	c.session = ""
	c.state = Idle
	c.lastCode = ""
	c.pending = nil
	c.registered = map[string]bool{}
	c.outcome = Outcome{}
	c.cooldownUntil = time.Time{}
}

// HandleDecode processes one decoded string from the reader. It returns
// a non-nil Submission when a network request must be made; the caller
// runs Submit with it (typically inside an async command) and applies
// the Result with Resolve. A nil return means the decode was absorbed:
// idle, duplicate, in-flight, or handled locally.
func (c *Controller) HandleDecode(code string) *Submission {
	c.maybeExpire()

	if code == "" {
		return nil
	}
	switch c.state {
	case Idle, Submitting:
		return nil
	}

	if c.alreadyRegistered(code) {
		c.lastCode = code
		c.outcome = Outcome{Kind: OutcomeInfo, Message: i18n.T("scan.already_registered")}
		c.state = Scanning
		return nil
	}
	if code == c.lastCode {
		// Stationary codes are decoded many times per second.
		return nil
	}

	c.lastCode = code
	c.state = Submitting
	c.outcome = Outcome{Kind: OutcomeInfo, Message: i18n.T("scan.processing")}
	c.pending = &Submission{Session: c.session, Code: code}
	return c.pending
}

// HandleReaderError surfaces a transport-level reader failure (camera
// permission revoked and the like). Non-fatal: scanning continues.
func (c *Controller) HandleReaderError(err error) {
	if c.state == Idle || err == nil {
		return
	}
	c.outcome = Outcome{Kind: OutcomeError, Message: i18n.T("scan.reader_error")}
}

// Submit performs the network call for sub. It does not touch the
// controller state and is safe to run off the event loop.
func (c *Controller) Submit(ctx context.Context, sub Submission) Result {
	meeting, err := c.submitter.SubmitScan(ctx, sub.Code)
	return Result{Submission: sub, Meeting: meeting, Err: err}
}

// Resolve applies a submission result. Results from a stopped or
// restarted session are discarded.
func (c *Controller) Resolve(res Result) Resolution {
	if c.state != Submitting || c.pending == nil ||
		res.Session != c.session || res.Code != c.pending.Code {
		return Resolution{}
	}
	c.pending = nil

	if res.Err == nil {
		c.registered[res.Code] = true
		c.state = ResolvedSuccess
		c.outcome = Outcome{Kind: OutcomeSuccess, Message: i18n.T("scan.success", res.Meeting.Title)}
		c.cooldownUntil = c.now().Add(SuccessCooldown)
		return Resolution{Refresh: true, CooldownUntil: c.cooldownUntil}
	}

	c.state = ResolvedFailure
	c.outcome = Outcome{Kind: OutcomeError, Message: classify(res.Err)}
	c.cooldownUntil = c.now().Add(FailureCooldown)
	return Resolution{CooldownUntil: c.cooldownUntil}
}

// ExpireCooldown is the timer entry point: once the cooldown deadline
// has passed, the resolved outcome is cleared and scanning resumes with
// the last handled code forgotten.
func (c *Controller) ExpireCooldown() {
	c.maybeExpire()
}

func (c *Controller) maybeExpire() {
	if c.state != ResolvedSuccess && c.state != ResolvedFailure {
		return
	}
	if c.now().Before(c.cooldownUntil) {
		return
	}
	c.state = Scanning
	c.lastCode = ""
	c.outcome = Outcome{Kind: OutcomeInfo, Message: i18n.T("scan.prompt")}
}

// alreadyRegistered checks the scanned code against known attendance
// records by meeting code or id. Title matching is deliberately not
// done; the code is the payload contract and the service rejects true
// duplicates anyway.
func (c *Controller) alreadyRegistered(code string) bool {
	if c.registered[code] {
		return true
	}
	for _, rec := range c.attendances {
		if rec.Meeting.Code == code || rec.Meeting.ID == code {
			return true
		}
	}
	return false
}

// classify maps a submission error to the user-facing message: the
// server's message verbatim when there is one, otherwise the generic
// connection error.
func classify(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return i18n.T("scan.submit_error")
	}
	return i18n.T("scan.connection_error")
}
