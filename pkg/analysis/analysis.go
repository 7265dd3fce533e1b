package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bionetlab/netcontrol/pkg/search"
)

// Algorithm selects the search strategy for an analysis
type Algorithm string

const (
	// AlgorithmGreedy selects the best-marginal-gain heuristic
	AlgorithmGreedy Algorithm = "Greedy"
	// AlgorithmGenetic selects the population metaheuristic
	AlgorithmGenetic Algorithm = "Genetic"
)

// ParseAlgorithm converts a string to an Algorithm
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "Greedy", "greedy":
		return AlgorithmGreedy, nil
	case "Genetic", "genetic":
		return AlgorithmGenetic, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", s)
	}
}

// Default iteration budgets
const (
	DefaultIterationLimit     = 100
	DefaultNoImprovementLimit = 25
)

// LogEntry is one line of the append-only operator log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Analysis is the unit of work: one driver-set search over one network
// snapshot. It is created Initializing, mutated only by the Runner while
// running, and becomes immutable once a terminal status is reached.
type Analysis struct {
	ID                 string
	Algorithm          Algorithm
	IterationLimit     int
	NoImprovementLimit int
	// Genetic holds the algorithm-specific parameters; ignored by Greedy
	Genetic search.GeneticParams

	Iteration     int
	NoImprovement int
	Best          search.Candidate

	Status    Status
	StartedAt time.Time
	EndedAt   time.Time
	Log       []LogEntry
}

// New creates an analysis in the Initializing state. Non-positive limits
// fall back to the defaults.
func New(algorithm Algorithm, iterationLimit, noImprovementLimit int) *Analysis {
	if iterationLimit <= 0 {
		iterationLimit = DefaultIterationLimit
	}
	if noImprovementLimit <= 0 {
		noImprovementLimit = DefaultNoImprovementLimit
	}
	return &Analysis{
		ID:                 uuid.NewString(),
		Algorithm:          algorithm,
		IterationLimit:     iterationLimit,
		NoImprovementLimit: noImprovementLimit,
		Genetic:            search.DefaultGeneticParams(),
		Status:             StatusInitializing,
	}
}

// appendLog adds an entry to the analysis log
func (a *Analysis) appendLog(now time.Time, format string, args ...any) LogEntry {
	entry := LogEntry{Time: now, Message: fmt.Sprintf(format, args...)}
	a.Log = append(a.Log, entry)
	return entry
}

// transition moves the analysis to the next status, stamping the end time
// on terminal states.
func (a *Analysis) transition(now time.Time, next Status) error {
	if err := checkTransition(a.Status, next); err != nil {
		return err
	}
	a.Status = next
	if next.Terminal() {
		a.EndedAt = now
	}
	return nil
}

// Snapshot is the self-consistent progress view persisted after every
// iteration and served to pollers.
type Snapshot struct {
	ID            string        `json:"id"`
	Algorithm     Algorithm     `json:"algorithm"`
	Status        Status        `json:"status"`
	Iteration     int           `json:"iteration"`
	NoImprovement int           `json:"noImprovement"`
	Elapsed       time.Duration `json:"elapsed"`
	BestDrivers   []uint64      `json:"bestDrivers"`
	BestCoverage  float64       `json:"bestCoverage"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       time.Time     `json:"endedAt,omitempty"`
}

// Snapshot captures the current progress. The driver slice is copied so
// the snapshot stays valid while the search keeps moving.
func (a *Analysis) Snapshot(now time.Time) Snapshot {
	elapsed := time.Duration(0)
	if !a.StartedAt.IsZero() {
		end := now
		if !a.EndedAt.IsZero() {
			end = a.EndedAt
		}
		elapsed = end.Sub(a.StartedAt)
	}

	drivers := make([]uint64, len(a.Best.Drivers))
	copy(drivers, a.Best.Drivers)

	return Snapshot{
		ID:            a.ID,
		Algorithm:     a.Algorithm,
		Status:        a.Status,
		Iteration:     a.Iteration,
		NoImprovement: a.NoImprovement,
		Elapsed:       elapsed,
		BestDrivers:   drivers,
		BestCoverage:  a.Best.Fitness.Coverage,
		StartedAt:     a.StartedAt,
		EndedAt:       a.EndedAt,
	}
}
