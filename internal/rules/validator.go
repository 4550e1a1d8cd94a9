package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"purchaseflow/internal/model"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Merge appends another result; the merged result is valid only if both are.
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	out := ValidationResult{
		Errors:   append(append([]string{}, r.Errors...), other.Errors...),
		Warnings: append(append([]string{}, r.Warnings...), other.Warnings...),
	}
	out.Valid = len(out.Errors) == 0
	return out
}

// Validator checks a request record against the hard business constraints.
type Validator struct {
	limits Limits
}

func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate never mutates req. now is only used for the due date warning.
func (v *Validator) Validate(req *model.PurchaseRequest, now time.Time) ValidationResult {
	errs := make([]string, 0)
	warnings := make([]string, 0)
	l := v.limits

	if strings.TrimSpace(req.RequesterName) == "" {
		errs = append(errs, "requester name is required")
	}
	if !ValidEmail(strings.TrimSpace(req.RequesterEmail)) {
		errs = append(errs, "requester email is invalid")
	}
	if strings.TrimSpace(req.Department) == "" {
		errs = append(errs, "department is required")
	}

	descLen := utf8.RuneCountInString(strings.TrimSpace(req.Description))
	if descLen < l.DescriptionMin || descLen > l.DescriptionMax {
		errs = append(errs, fmt.Sprintf("description must be between %d and %d characters", l.DescriptionMin, l.DescriptionMax))
	}

	amount := req.TotalAmount
	if !amount.GreaterThan(decimal.Zero) {
		errs = append(errs, "amount must be greater than $0")
	} else if amount.GreaterThan(l.MaxAmount) {
		errs = append(errs, fmt.Sprintf("amount exceeds the maximum limit of %s", money(l.MaxAmount)))
	} else if !amount.Equal(amount.Round(2)) {
		// stored as decimal(12,2); routing must see the stored value
		errs = append(errs, "amount cannot have more than 2 decimal places")
	}

	if !lo.Contains(l.Currencies, req.Currency) {
		errs = append(errs, fmt.Sprintf("currency must be one of %s", strings.Join(l.Currencies, ", ")))
	}

	if strings.TrimSpace(req.SupplierName) == "" {
		errs = append(errs, "a supplier must be specified")
	}
	if email := strings.TrimSpace(req.SupplierEmail); email != "" && !ValidEmail(email) {
		errs = append(errs, "supplier email is invalid: "+email)
	}

	if req.Priority == model.PriorityUrgent && amount.GreaterThan(l.UrgentJustification) {
		warnings = append(warnings, fmt.Sprintf("URGENT request above %s requires special justification", money(l.UrgentJustification)))
	}
	if req.Category == model.CategoryOfficeSupplies && amount.GreaterThan(l.OfficeSuppliesReview) {
		warnings = append(warnings, fmt.Sprintf("office supplies above %s - verify necessity", money(l.OfficeSuppliesReview)))
	}
	if req.DueDate != nil && req.DueDate.Before(now.Add(l.DueSoonWindow)) {
		warnings = append(warnings, "due date is very close - may affect approval timeline")
	}

	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
