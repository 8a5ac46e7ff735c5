package onlineconfig

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a cycle failed in.
type Stage string

const (
	StageRequestConstruction Stage = "request_construction"
	StageTransport           Stage = "transport"
	StageBodyRead            Stage = "body_read"
	StageEncoding            Stage = "encoding"
	StageParse               Stage = "parse"
	StageIntegrity           Stage = "integrity"
	StagePoolUpdate          Stage = "pool_update"
)

// ErrCycleTimeout reports that a whole fetch cycle exceeded its deadline.
// The pool is untouched in that case: the pool update is the last stage
// and never runs once the deadline has passed.
var ErrCycleTimeout = errors.New("online config cycle timed out")

// CycleError is the failure of a single fetch cycle, recording the stage
// that aborted it. Cycle failures are local to their tick; the service
// keeps the previous server set and retries on the next one.
type CycleError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("online config cycle failed at stage %s, url %s: %v", e.Stage, e.URL, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the pipeline stage from a cycle failure, or "" if
// the error does not carry one.
func FailedStage(err error) Stage {
	var cerr *CycleError
	if errors.As(err, &cerr) {
		return cerr.Stage
	}
	return ""
}
