package dynamics

import "fmt"

// CandidateSelection controls whether a reviser evaluates strategies directly
// or evaluates other agents and imitates one of them.
type CandidateSelection int

const (
	Direct CandidateSelection = iota
	Imitative
)

// DecisionMethod selects how a candidate set resolves into a next strategy.
type DecisionMethod int

const (
	Best DecisionMethod = iota
	Logit
	Proportional
)

// TieBreakRule arbitrates among tied maximal candidates under Best.
type TieBreakRule int

const (
	StickUniform TieBreakRule = iota
	StickMin
	Uniform
	RandomWalk
)

// Matching controls how candidate payoffs are obtained.
type Matching int

const (
	// Complete computes exact expected payoffs against the opponent
	// population's full pre-tick composition.
	Complete Matching = iota
	// Sampled estimates payoffs from sampled counterpart lists.
	Sampled
)

// SampleReuse controls whether one counterpart sample is shared across all
// candidate evaluations of a reviser, or redrawn per candidate. Only
// observable under the direct protocol, where several strategies are priced
// per revision.
type SampleReuse int

const (
	FixedSample SampleReuse = iota
	Resampled
)

// Scheduling controls how revisers are selected each tick.
type Scheduling int

const (
	// Probabilistic selects every agent independently with RevisionProb.
	Probabilistic Scheduling = iota
	// FixedCount selects exactly RevisionCount distinct agents from the
	// combined populations.
	FixedCount
)

// Protocol is the full revision protocol configuration, resolved from its
// string form once at setup. It is threaded through the engine by value; no
// component re-dispatches on names per revision.
type Protocol struct {
	Candidates CandidateSelection
	Decision   DecisionMethod
	TieBreak   TieBreakRule
	Matching   Matching

	// Sampled-matching settings.
	Trials                int
	TrialsWithReplacement bool
	SampleReuse           SampleReuse

	// Imitative-only settings.
	Imitatees                int
	ImitateesWithReplacement bool
	ConsiderImitatingSelf    bool

	// Direct-only settings.
	TestSetSize int

	Scheduling    Scheduling
	RevisionProb  float64
	RevisionCount int

	MutationProb    float64
	Eta             float64
	RandomWalkSpeed float64
}

var (
	candidateNames = map[string]CandidateSelection{
		"direct":    Direct,
		"imitative": Imitative,
	}
	decisionNames = map[string]DecisionMethod{
		"best":         Best,
		"logit":        Logit,
		"proportional": Proportional,
	}
	tieBreakNames = map[string]TieBreakRule{
		"stick-uniform": StickUniform,
		"stick-min":     StickMin,
		"uniform":       Uniform,
		"random-walk":   RandomWalk,
	}
	matchingNames = map[string]Matching{
		"complete": Complete,
		"sampled":  Sampled,
	}
	reuseNames = map[string]SampleReuse{
		"fixed":     FixedSample,
		"resampled": Resampled,
	}
	schedulingNames = map[string]Scheduling{
		"probabilistic": Probabilistic,
		"fixed-count":   FixedCount,
	}
)

// ParseCandidateSelection resolves the string form used in scenario files.
func ParseCandidateSelection(s string) (CandidateSelection, error) {
	v, ok := candidateNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown candidate selection %q (want direct or imitative)", s)
	}
	return v, nil
}

// ParseDecisionMethod resolves the string form used in scenario files.
func ParseDecisionMethod(s string) (DecisionMethod, error) {
	v, ok := decisionNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown decision method %q (want best, logit or proportional)", s)
	}
	return v, nil
}

// ParseTieBreakRule resolves the string form used in scenario files.
func ParseTieBreakRule(s string) (TieBreakRule, error) {
	v, ok := tieBreakNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown tie-breaker %q (want stick-uniform, stick-min, uniform or random-walk)", s)
	}
	return v, nil
}

// ParseMatching resolves the string form used in scenario files.
func ParseMatching(s string) (Matching, error) {
	v, ok := matchingNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown matching %q (want complete or sampled)", s)
	}
	return v, nil
}

// ParseSampleReuse resolves the string form used in scenario files.
func ParseSampleReuse(s string) (SampleReuse, error) {
	v, ok := reuseNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown sample reuse %q (want fixed or resampled)", s)
	}
	return v, nil
}

// ParseScheduling resolves the string form used in scenario files.
func ParseScheduling(s string) (Scheduling, error) {
	v, ok := schedulingNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown scheduling %q (want probabilistic or fixed-count)", s)
	}
	return v, nil
}

// Validate checks the protocol's numeric settings. Counts that merely exceed
// what a population can supply are not errors; they are clamped at use.
func (p Protocol) Validate() error {
	if p.Decision == Logit && p.Eta <= 0 {
		return fmt.Errorf("logit temperature must be positive, got %g", p.Eta)
	}
	if p.MutationProb < 0 || p.MutationProb > 1 {
		return fmt.Errorf("mutation probability %g outside [0,1]", p.MutationProb)
	}
	if p.Scheduling == Probabilistic && (p.RevisionProb < 0 || p.RevisionProb > 1) {
		return fmt.Errorf("revision probability %g outside [0,1]", p.RevisionProb)
	}
	if p.Scheduling == FixedCount && p.RevisionCount < 0 {
		return fmt.Errorf("revision count must be non-negative, got %d", p.RevisionCount)
	}
	if p.RandomWalkSpeed < 0 || p.RandomWalkSpeed > 1 {
		return fmt.Errorf("random-walk speed %g outside [0,1]", p.RandomWalkSpeed)
	}
	if p.Matching == Sampled && p.Trials < 1 {
		return fmt.Errorf("sampled matching needs at least 1 trial, got %d", p.Trials)
	}
	return nil
}
