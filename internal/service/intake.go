package service

import (
	"fmt"
	"strings"
	"time"

	"purchaseflow/internal/model"
	"purchaseflow/internal/rules"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// PurchaseRequestDTO is the inbound payload shared by submission and the
// validation API.
type PurchaseRequestDTO struct {
	RequesterName  string           `json:"requesterName"`
	RequesterEmail string           `json:"requesterEmail"`
	Department     string           `json:"department"`
	Description    string           `json:"description"`
	TotalAmount    *decimal.Decimal `json:"totalAmount" swaggertype:"number"`
	Currency       string           `json:"currency"`
	Category       string           `json:"category"`
	Priority       string           `json:"priority"`
	SupplierName   string           `json:"supplierName"`
	SupplierEmail  string           `json:"supplierEmail"`
	DueDate        *time.Time       `json:"dueDate"`
	Comments       string           `json:"comments"`
}

// Intake turns payloads into request records. In strict mode unknown
// category or priority names are blocking errors; in lenient mode they fall
// back to OTHER / NORMAL and the fallback is reported as a warning.
type Intake struct {
	Lenient bool
}

// Build never fails; problems with the enumerations are returned as a
// validation result to merge with the validator's.
func (in Intake) Build(dto PurchaseRequestDTO) (*model.PurchaseRequest, rules.ValidationResult) {
	errs := make([]string, 0)
	warnings := make([]string, 0)

	req := &model.PurchaseRequest{
		RequesterName:  strings.TrimSpace(dto.RequesterName),
		RequesterEmail: strings.TrimSpace(dto.RequesterEmail),
		Department:     strings.TrimSpace(dto.Department),
		Description:    strings.TrimSpace(dto.Description),
		Currency:       strings.ToUpper(strings.TrimSpace(dto.Currency)),
		SupplierName:   strings.TrimSpace(dto.SupplierName),
		SupplierEmail:  strings.TrimSpace(dto.SupplierEmail),
		DueDate:        dto.DueDate,
		Comments:       dto.Comments,
		Status:         model.StatusPending,
	}
	if dto.TotalAmount != nil {
		req.TotalAmount = *dto.TotalAmount
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	category := strings.TrimSpace(dto.Category)
	if category == "" {
		errs = append(errs, "category is required")
	} else if c, ok := model.ParseCategory(category); ok {
		req.Category = c
	} else if in.Lenient {
		req.Category = model.CategoryOther
		warnings = append(warnings, fmt.Sprintf("unknown category %q treated as %s", category, model.CategoryOther))
	} else {
		errs = append(errs, fmt.Sprintf("unknown category %q", category))
	}

	priority := strings.TrimSpace(dto.Priority)
	if priority == "" {
		req.Priority = model.PriorityNormal
	} else if p, ok := model.ParsePriority(priority); ok {
		req.Priority = p
	} else if in.Lenient {
		req.Priority = model.PriorityNormal
		warnings = append(warnings, fmt.Sprintf("unknown priority %q treated as %s", priority, model.PriorityNormal))
	} else {
		errs = append(errs, fmt.Sprintf("unknown priority %q", priority))
	}

	return req, rules.ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
