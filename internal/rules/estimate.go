package rules

import "purchaseflow/internal/model"

// BufferDays is added to the estimate to get the maximum turnaround.
const BufferDays = 2

// TimeEstimate is the expected and maximum turnaround in days.
type TimeEstimate struct {
	EstimatedDays int `json:"estimated_days"`
	MaxDays       int `json:"max_days"`
}

func baseDays(tier model.ApprovalTier) int {
	switch tier {
	case model.TierSupervisor:
		return 2
	case model.TierManager:
		return 3
	case model.TierCEO:
		return 5
	default:
		return 0
	}
}

// Estimate maps a tier and priority to turnaround days. URGENT takes one day
// off (never below one day for human tiers), LOW adds one.
func Estimate(tier model.ApprovalTier, priority model.Priority) TimeEstimate {
	days := baseDays(tier)
	switch priority {
	case model.PriorityUrgent:
		if days > 0 {
			days = max(1, days-1)
		}
	case model.PriorityLow:
		days++
	}
	return TimeEstimate{EstimatedDays: days, MaxDays: days + BufferDays}
}
