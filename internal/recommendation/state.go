package recommendation

import "github.com/sirupsen/logrus"

// State names a step of a recommendation request's lifecycle (spec §4.10).
// It exists for logging/observability only — callers never branch on it
// directly, the service methods below drive the transitions themselves.
type State string

const (
	StateReceived            State = "Received"
	StateFingerprintComputed State = "FingerprintComputed"
	StateCacheHit            State = "CacheHit"
	StateCacheMiss           State = "CacheMiss"
	StateAlgorithmDispatched State = "AlgorithmDispatched"
	StateScoresCollected     State = "ScoresCollected"
	StateFiltered            State = "Filtered"
	StateRanked              State = "Ranked"
	StateCached              State = "Cached"
	StateReturned            State = "Returned"

	StateInvalidInput State = "InvalidInput"
	StateNotFound     State = "NotFound"
	StateDegraded     State = "Degraded"
)

// transition logs entering state and returns the entry so callers can chain
// further transitions without rebuilding the field each time.
func transition(entry *logrus.Entry, state State) *logrus.Entry {
	entry = entry.WithField("state", state)
	entry.Debug("recommendation state transition")
	return entry
}
