package puller

import (
	"fmt"

	"vkp/internal/vkp"
)

// Stage names the state-machine step a candidate failed or was skipped at
// (spec §4.7), so the cron entry point can log structured detail instead
// of parsing an error string.
type Stage string

const (
	StageTryDelta   Stage = "try_delta"
	StageFullFetch  Stage = "full_fetch"
	StageVerify     Stage = "verify"
	StageInstall    Stage = "install"
	StageRegister   Stage = "register"
	StageInvalidate Stage = "invalidate"
)

// CandidateError records one candidate's failure, per SPEC_FULL.md's
// "Tally.Errors structured detail" supplement.
type CandidateError struct {
	Triple  vkp.Triple
	Version string
	Stage   Stage
	Err     error
}

func (e CandidateError) Error() string {
	return fmt.Sprintf("%s v%s at %s: %v", e.Triple.CollectionName(), e.Version, e.Stage, e.Err)
}

func (e CandidateError) Unwrap() error { return e.Err }

// Tally is the result of one Puller.Tick (spec §4.7: "Returns a tally
// {successful, failed, skipped, errors[]}").
type Tally struct {
	// Offline is true when Probe failed and the tick was a no-op (§4.7
	// Probe → Offline → Idle transition). Successful/Failed/Skipped are
	// all zero in that case.
	Offline bool

	Successful int
	Failed     int
	Skipped    int
	Errors     []CandidateError
}

func (t *Tally) recordFailure(triple vkp.Triple, version string, stage Stage, err error) {
	t.Failed++
	t.Errors = append(t.Errors, CandidateError{Triple: triple, Version: version, Stage: stage, Err: err})
}
