package rules

import "purchaseflow/internal/model"

// Contacts maps approval tiers to the approver mailbox.
type Contacts struct {
	Supervisor string `env:"SUPERVISOR_EMAIL" envDefault:"supervisor@example.com" yaml:"supervisor"`
	Manager    string `env:"MANAGER_EMAIL"    envDefault:"manager@example.com"    yaml:"manager"`
	CEO        string `env:"CEO_EMAIL"        envDefault:"ceo@example.com"        yaml:"ceo"`
	Fallback   string `env:"ADMIN_EMAIL"      envDefault:"admin@example.com"      yaml:"fallback"`
}

// For returns the approver address of a tier. AUTO needs no human approver.
func (c Contacts) For(tier model.ApprovalTier) string {
	switch tier {
	case model.TierAuto:
		return ""
	case model.TierSupervisor:
		return c.Supervisor
	case model.TierManager:
		return c.Manager
	case model.TierCEO:
		return c.CEO
	default:
		return c.Fallback
	}
}

// TaskName is the approval task label used in reminders.
func TaskName(tier model.ApprovalTier) string {
	switch tier {
	case model.TierSupervisor, model.TierManager, model.TierCEO:
		return string(tier) + " APPROVAL"
	default:
		return "Approval task"
	}
}
