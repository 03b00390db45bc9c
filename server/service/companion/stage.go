package companion

// Relationship stages form a closed ordered set. A stage only ever advances;
// a provider result naming a stage outside the set is rejected, and a result
// naming an earlier stage is clamped to the current one.
const (
	StageStranger     = "Stranger"
	StageAcquaintance = "Acquaintance"
	StageFriend       = "Friend"
	StageCloseFriend  = "Close Friend"
	StageBestFriend   = "Best Friend"
	StageSoulmate     = "Soulmate"
)

var stageOrder = []string{
	StageStranger,
	StageAcquaintance,
	StageFriend,
	StageCloseFriend,
	StageBestFriend,
	StageSoulmate,
}

// StageIndex returns the position of a stage in the ordered set. The second
// return is false for unknown stages.
func StageIndex(stage string) (int, bool) {
	for i, s := range stageOrder {
		if s == stage {
			return i, true
		}
	}
	return 0, false
}

// IsValidStage reports whether the stage is in the configured ordered set.
func IsValidStage(stage string) bool {
	_, ok := StageIndex(stage)
	return ok
}

// Stages returns the ordered stage set.
func Stages() []string {
	out := make([]string, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// advanceStage resolves a proposed stage against the current one. Unknown
// proposals return false. A proposal behind the current stage resolves to
// the current stage, keeping progression monotonic.
func advanceStage(current, proposed string) (string, bool) {
	proposedIdx, ok := StageIndex(proposed)
	if !ok {
		return "", false
	}
	currentIdx, ok := StageIndex(current)
	if !ok {
		// Current value drifted outside the set (legacy data); accept the
		// valid proposal as-is.
		return proposed, true
	}
	if proposedIdx < currentIdx {
		return current, true
	}
	return proposed, true
}
