package leads

import (
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/statemachine"
)

// callTarget returns the funnel status a call outcome moves the lead to, and
// false when the outcome leaves the lead where it is. A target is only
// returned when it is a legal forward edge from current.
func callTarget(outcome enums.CallOutcome, current enums.LeadStatus) (enums.LeadStatus, bool) {
	var target enums.LeadStatus
	switch outcome {
	case enums.CallOutcomeConfirmed:
		target = enums.LeadStatusConfirmed
	case enums.CallOutcomeNoAnswer, enums.CallOutcomeBusy, enums.CallOutcomeCallback:
		if current != enums.LeadStatusNew {
			return "", false
		}
		target = enums.LeadStatusContacted
	case enums.CallOutcomeNotInterested, enums.CallOutcomeWrongNumber, enums.CallOutcomeCancelled:
		target = enums.LeadStatusLost
	default:
		return "", false
	}
	if !statemachine.Lead.CanTransition(current, target) {
		return "", false
	}
	return target, true
}
