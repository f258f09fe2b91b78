package grader

// DefaultHintUnlockInterval is used when an exercise does not set its own
// unlock cadence.
const DefaultHintUnlockInterval = 3

// UnlockedTier maps a learner's attempt count to the highest hint tier they
// may see: one tier per interval of attempts, capped at the exercise's hint
// count. Pure and side-effect-free; the attempt count is owned by the
// persistence collaborator.
func UnlockedTier(attempts, interval, totalHints int) int {
	if totalHints <= 0 || attempts <= 0 {
		return 0
	}
	if interval <= 0 {
		interval = DefaultHintUnlockInterval
	}

	tier := attempts / interval
	if tier > totalHints {
		return totalHints
	}
	return tier
}
