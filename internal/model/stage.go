package model

import "fmt"

// Stage is one ordered phase of a turnover. The set is closed: the zero value
// and any string outside the constants below are invalid.
type Stage string

const (
	StageTeardown  Stage = "teardown"
	StageCleaning  Stage = "cleaning"
	StageSetup     Stage = "setup"
	StageChecklist Stage = "checklist"
	StageRelease   Stage = "release"
	StageCompleted Stage = "completed"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StageTeardown,
	StageCleaning,
	StageSetup,
	StageChecklist,
	StageRelease,
	StageCompleted,
}

// Next returns the stage that follows s. It reports false for completed and
// for values outside the enum.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageTeardown:
		return StageCleaning, true
	case StageCleaning:
		return StageSetup, true
	case StageSetup:
		return StageChecklist, true
	case StageChecklist:
		return StageRelease, true
	case StageRelease:
		return StageCompleted, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the declared stages.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageCompleted
}

// TracksDuration reports whether time spent in s is accumulated into a
// per-phase duration column on the turnover.
func (s Stage) TracksDuration() bool {
	return s == StageTeardown || s == StageCleaning || s == StageSetup
}

// ParseStage converts a raw stage name into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}
