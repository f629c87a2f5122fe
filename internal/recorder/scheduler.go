package recorder

import "fmt"

// Decision is the scheduler's answer to "should a learning pass run now".
// "Not yet" is a normal decision, never an error.
type Decision struct {
	Trigger bool
	Reason  string
}

// ShouldTriggerAnalysis is a pure threshold decision over the current edit
// count and the profile's analyzed watermark. With no profile, the first
// analysis triggers once minEdits have accumulated; with a profile, a new
// pass triggers every analysisInterval edits past the watermark. It performs
// no side effects.
func ShouldTriggerAnalysis(profileExists bool, totalAnalyzed, currentCount, minEdits, analysisInterval int) Decision {
	if !profileExists {
		if currentCount >= minEdits {
			return Decision{
				Trigger: true,
				Reason:  fmt.Sprintf("initial profile creation: %d edits recorded, minimum is %d", currentCount, minEdits),
			}
		}
		return Decision{
			Reason: fmt.Sprintf("waiting for initial profile: %d of %d edits recorded", currentCount, minEdits),
		}
	}

	pending := currentCount - totalAnalyzed
	if pending >= analysisInterval {
		return Decision{
			Trigger: true,
			Reason:  fmt.Sprintf("profile refresh: %d unanalyzed edits, interval is %d", pending, analysisInterval),
		}
	}
	return Decision{
		Reason: fmt.Sprintf("profile current: %d of %d unanalyzed edits", pending, analysisInterval),
	}
}
