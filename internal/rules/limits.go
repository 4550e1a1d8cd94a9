// Package rules holds the pure evaluators behind purchase approval: the
// validator, the route engine, the time estimator and the overdue tracker.
// Nothing here performs I/O or keeps mutable state, so every function is safe
// to call concurrently.
package rules

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Limits are the routing and validation thresholds.
type Limits struct {
	AutoApproval       decimal.Decimal `env:"AUTO_APPROVAL_LIMIT"        envDefault:"200"   yaml:"auto_approval" json:"autoApproval"`
	OfficeSuppliesAuto decimal.Decimal `env:"OFFICE_SUPPLIES_AUTO_LIMIT" envDefault:"500"   yaml:"office_supplies_auto" json:"officeSuppliesAuto"`
	UrgentEscalation   decimal.Decimal `env:"URGENT_ESCALATION_LIMIT"    envDefault:"500"   yaml:"urgent_escalation" json:"urgentEscalation"`
	StrategicCEO       decimal.Decimal `env:"STRATEGIC_CEO_LIMIT"        envDefault:"5000"  yaml:"strategic_ceo" json:"strategicCeo"`
	Supervisor         decimal.Decimal `env:"SUPERVISOR_LIMIT"           envDefault:"2000"  yaml:"supervisor" json:"supervisor"`
	Manager            decimal.Decimal `env:"MANAGER_LIMIT"              envDefault:"10000" yaml:"manager" json:"manager"`

	MaxAmount            decimal.Decimal `env:"MAX_AMOUNT"                  envDefault:"1000000" yaml:"max_amount" json:"maxAmount"`
	UrgentJustification  decimal.Decimal `env:"URGENT_JUSTIFICATION_AMOUNT" envDefault:"100000"  yaml:"urgent_justification" json:"urgentJustification"`
	OfficeSuppliesReview decimal.Decimal `env:"OFFICE_SUPPLIES_REVIEW"      envDefault:"5000"    yaml:"office_supplies_review" json:"officeSuppliesReview"`
	DueSoonWindow        time.Duration   `env:"DUE_SOON_WINDOW"             envDefault:"24h"     yaml:"due_soon_window" json:"dueSoonWindow"`

	DescriptionMin int      `env:"DESCRIPTION_MIN" envDefault:"10"              yaml:"description_min" json:"descriptionMin"`
	DescriptionMax int      `env:"DESCRIPTION_MAX" envDefault:"500"             yaml:"description_max" json:"descriptionMax"`
	Currencies     []string `env:"CURRENCIES"      envDefault:"USD,EUR,COP,ECU" envSeparator:"," yaml:"currencies" json:"currencies"`
}

// DefaultLimits returns the reference configuration.
func DefaultLimits() Limits {
	return Limits{
		AutoApproval:         decimal.NewFromInt(200),
		OfficeSuppliesAuto:   decimal.NewFromInt(500),
		UrgentEscalation:     decimal.NewFromInt(500),
		StrategicCEO:         decimal.NewFromInt(5000),
		Supervisor:           decimal.NewFromInt(2000),
		Manager:              decimal.NewFromInt(10000),
		MaxAmount:            decimal.NewFromInt(1000000),
		UrgentJustification:  decimal.NewFromInt(100000),
		OfficeSuppliesReview: decimal.NewFromInt(5000),
		DueSoonWindow:        24 * time.Hour,
		DescriptionMin:       10,
		DescriptionMax:       500,
		Currencies:           []string{"USD", "EUR", "COP", "ECU"},
	}
}

// Check rejects limit sets whose tier thresholds are out of order.
func (l Limits) Check() error {
	if !l.AutoApproval.IsPositive() {
		return fmt.Errorf("auto approval limit must be positive, got %s", l.AutoApproval)
	}
	if l.Supervisor.LessThan(l.AutoApproval) {
		return fmt.Errorf("supervisor limit %s is below auto approval limit %s", l.Supervisor, l.AutoApproval)
	}
	if l.Manager.LessThan(l.Supervisor) {
		return fmt.Errorf("manager limit %s is below supervisor limit %s", l.Manager, l.Supervisor)
	}
	if l.MaxAmount.LessThan(l.Manager) {
		return fmt.Errorf("max amount %s is below manager limit %s", l.MaxAmount, l.Manager)
	}
	if l.DescriptionMin < 0 || l.DescriptionMax < l.DescriptionMin {
		return fmt.Errorf("invalid description bounds [%d, %d]", l.DescriptionMin, l.DescriptionMax)
	}
	if len(l.Currencies) == 0 {
		return fmt.Errorf("at least one currency is required")
	}
	return nil
}

// LoadLimitsFile overlays the YAML document at path onto base. Keys missing
// from the file keep the value from base.
func LoadLimitsFile(path string, base Limits) (Limits, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read rules file: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := out.Check(); err != nil {
		return base, fmt.Errorf("rules file %s: %w", path, err)
	}
	return out, nil
}
