package acmedns

import (
	"time"
)

// State is a step in the per-authorization DNS-01 lifecycle.
type State int

const (
	StateNew State = iota
	StateChallengeReady
	StateProvisioned
	StateNotified
	StatePolling
	StateValid
	StateInvalid
	StateTimeout
	StateCleaned
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateChallengeReady:
		return "CHALLENGE_READY"
	case StateProvisioned:
		return "PROVISIONED"
	case StateNotified:
		return "NOTIFIED"
	case StatePolling:
		return "POLLING"
	case StateValid:
		return "VALID"
	case StateInvalid:
		return "INVALID"
	case StateTimeout:
		return "TIMEOUT"
	case StateCleaned:
		return "CLEANED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// authorization is the subset of an ACME authorization response this
// client needs.
type authorization struct {
	URI        string
	ChallengeURL string
	Token      string
}

// selectDNSChallenge picks the first challenge of type "dns-01" from a
// raw authorization response: exactly one challenge is selected, and
// its absence is an immediate, non-retryable failure.
func selectDNSChallenge(domain string, challenges []acmeChallengeJSON) (*authorization, error) {
	for _, c := range challenges {
		if c.Type == "dns-01" {
			return &authorization{ChallengeURL: c.URL, Token: c.Token}, nil
		}
	}
	return nil, &ProtocolError{Reason: ErrNoMatchingChallenge, Detail: "no dns-01 challenge offered for " + domain}
}

// pollOutcome is the explicit, typed result of running the challenge
// loop to completion. Every terminal path is an explicit, named value
// rather than something a caller has to infer from a caught error or
// a side-effect of the loop breaking early.
type pollOutcome int

const (
	outcomeValid pollOutcome = iota
	outcomeInvalid
	outcomeTimedOut
)

// challengeRunner drives a single authorization, once the client has
// notified the authority, through POLLING → terminal.
type challengeRunner struct {
	transport *transport
	sink      EventSink
	wait      time.Duration
	maxPolls  int
	sleep     func(time.Duration) // overridable for tests
}

func newChallengeRunner(t *transport, sink EventSink, wait time.Duration, maxPolls int) *challengeRunner {
	return &challengeRunner{transport: t, sink: sink, wait: wait, maxPolls: maxPolls, sleep: time.Sleep}
}

// poll runs the bounded NOTIFIED → POLLING → terminal sequence: the
// first check happens after one wait period (to give DNS propagation
// and server-side validation a head start), then at most maxPolls-1
// further checks, each separated by wait. A transport error during
// polling is a retryable transient and is simply retried on the next
// tick — it never short-circuits the loop as a false success — until
// maxPolls is exhausted, at which point polling itself ends in
// outcomeTimedOut just like exhausting the status-check budget
// without a transport error.
func (r *challengeRunner) poll(challengeURL string) (pollOutcome, int, error) {
	r.sleep(r.wait)

	var lastErr error
	for i := 1; i <= r.maxPolls; i++ {
		resp, err := r.transport.get(challengeURL)
		if err != nil {
			lastErr = err
			r.sink.Emit("challenge.poll.transport_error", map[string]interface{}{"attempt": i, "error": err.Error()})
			r.sleep(r.wait)
			continue
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := resp.json(&body); err != nil {
			lastErr = err
			r.sink.Emit("challenge.poll.malformed_response", map[string]interface{}{"attempt": i})
			r.sleep(r.wait)
			continue
		}
		r.sink.Emit("challenge.poll", map[string]interface{}{"attempt": i, "status": body.Status})

		switch body.Status {
		case "valid":
			return outcomeValid, i, nil
		case "invalid":
			return outcomeInvalid, i, nil
		default: // "pending", "processing", or anything non-terminal
			lastErr = nil
			r.sleep(r.wait)
		}
	}
	return outcomeTimedOut, r.maxPolls, lastErr
}

// acmeChallengeJSON mirrors the wire shape of a single challenge entry
// in an authorization response.
type acmeChallengeJSON struct {
	Type   string `json:"type"`
	URL    string `json:"uri"`
	Token  string `json:"token"`
	Status string `json:"status"`
}
