// Package workflow talks to the external orchestration runtime that runs the
// approval process and its decision table.
package workflow

import (
	"time"

	"purchaseflow/internal/model"
)

// Variable names read by the runtime. They are a wire contract: the decision
// table looks up DecisionAmount and DecisionCategory byte for byte, accent included.
const (
	VarBusinessKey    = "businessKey"
	VarRequestID      = "requestId"
	VarRequesterName  = "requesterName"
	VarRequesterEmail = "requesterEmail"
	VarDepartment     = "department"
	VarDescription    = "description"
	VarTotalAmount    = "totalAmount"
	VarCurrency       = "currency"
	VarCategory       = "category"
	VarPriority       = "priority"
	VarSupplierName   = "supplierName"
	VarSupplierEmail  = "supplierEmail"
	VarDueDate        = "dueDate"

	DecisionAmount   = "Monto"
	DecisionCategory = "Categoría"
)

// Variables is the flat variable set handed to the runtime.
type Variables map[string]any

// VariablesFor builds the variable set of a request. The business key must
// already be assigned.
func VariablesFor(req *model.PurchaseRequest) Variables {
	amount := req.TotalAmount.InexactFloat64()

	var due any
	if req.DueDate != nil {
		due = req.DueDate.UTC().Format(time.RFC3339)
	}

	return Variables{
		VarBusinessKey:    req.BusinessKey,
		VarRequestID:      req.BusinessKey,
		VarRequesterName:  req.RequesterName,
		VarRequesterEmail: req.RequesterEmail,
		VarDepartment:     req.Department,
		VarDescription:    req.Description,
		VarTotalAmount:    amount,
		DecisionAmount:    amount,
		VarCurrency:       req.Currency,
		VarCategory:       string(req.Category),
		DecisionCategory:  string(req.Category),
		VarPriority:       string(req.Priority),
		VarSupplierName:   req.SupplierName,
		VarSupplierEmail:  req.SupplierEmail,
		VarDueDate:        due,
	}
}
