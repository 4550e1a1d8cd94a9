package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category enum
type Category string

const (
	CategoryOfficeSupplies Category = "OFFICE_SUPPLIES"
	CategoryITHardware     Category = "IT_HARDWARE"
	CategorySoftware       Category = "SOFTWARE"
	CategoryEquipment      Category = "EQUIPMENT"
	CategoryConsulting     Category = "CONSULTING"
	CategoryStrategic      Category = "STRATEGIC"
	CategoryMaintenance    Category = "MAINTENANCE"
	CategoryOther          Category = "OTHER"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryOfficeSupplies,
	CategoryITHardware,
	CategorySoftware,
	CategoryEquipment,
	CategoryConsulting,
	CategoryStrategic,
	CategoryMaintenance,
	CategoryOther,
}

// ParseCategory matches an exact (case-sensitive) category name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Priority enum
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ApprovalTier is ordered by increasing authority: AUTO < SUPERVISOR < MANAGER < CEO.
type ApprovalTier string

const (
	TierAuto       ApprovalTier = "AUTO"
	TierSupervisor ApprovalTier = "SUPERVISOR"
	TierManager    ApprovalTier = "MANAGER"
	TierCEO        ApprovalTier = "CEO"
)

var Tiers = []ApprovalTier{TierAuto, TierSupervisor, TierManager, TierCEO}

// Rank returns the authority level of the tier, -1 when unknown.
func (t ApprovalTier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// DisplayName is the label shown to requesters.
func (t ApprovalTier) DisplayName() string {
	switch t {
	case TierAuto:
		return "Automatic"
	case TierSupervisor:
		return "Supervisor"
	case TierManager:
		return "Manager"
	case TierCEO:
		return "CEO"
	default:
		return string(t)
	}
}

// Status enum
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInApproval Status = "IN_APPROVAL"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

var Statuses = []Status{StatusPending, StatusInApproval, StatusApproved, StatusRejected, StatusCancelled}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// PurchaseRequest is one purchase request and its routing / lifecycle state.
// Status, ApprovedAt, ProcessingTimeHours and ReminderCount are only changed
// through lifecycle.Machine.
type PurchaseRequest struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessKey       string    `gorm:"type:varchar(40);uniqueIndex" json:"business_key"`
	ProcessInstanceID string    `gorm:"type:varchar(64);index" json:"process_instance_id"`
	Version           int       `gorm:"not null;default:1" json:"version"` // optimistic lock

	// Requester
	RequesterName  string `gorm:"type:varchar(100);not null" json:"requester_name"`
	RequesterEmail string `gorm:"type:varchar(255);not null;index" json:"requester_email"`
	Department     string `gorm:"type:varchar(100);not null;index" json:"department"`

	// Purchase details
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Category    Category        `gorm:"type:varchar(30);not null;index" json:"category"`
	Priority    Priority        `gorm:"type:varchar(10);not null" json:"priority"`

	// Supplier
	SupplierName  string `gorm:"type:varchar(255);not null" json:"supplier_name"`
	SupplierEmail string `gorm:"type:varchar(255)" json:"supplier_email"`

	// Routing outcome
	ApprovalTier     ApprovalTier `gorm:"type:varchar(20)" json:"approval_tier"`
	RouteReason      string       `gorm:"type:varchar(255)" json:"route_reason"`
	AutoEligible     bool         `gorm:"default:false" json:"auto_eligible"`
	UrgentEscalation bool         `gorm:"default:false" json:"urgent_escalation"`
	HighValue        bool         `gorm:"default:false" json:"high_value"`
	Strategic        bool         `gorm:"default:false" json:"strategic"`

	// Lifecycle
	Status              Status     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovedBy          string     `gorm:"type:varchar(255)" json:"approved_by"`
	ApprovedAt          *time.Time `json:"approved_at"` // also the process end marker for REJECTED / CANCELLED
	RejectionReason     string     `gorm:"type:varchar(500)" json:"rejection_reason"`
	ReminderCount       int        `gorm:"not null;default:0" json:"reminder_count"`
	DueDate             *time.Time `gorm:"index" json:"due_date"`
	ProcessingTimeHours *int       `json:"processing_time_hours"`
	Comments            string     `gorm:"type:varchar(1000)" json:"comments"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormattedAmount renders "<currency> <amount>" with two decimals.
func (p *PurchaseRequest) FormattedAmount() string {
	return fmt.Sprintf("%s %s", p.Currency, p.TotalAmount.StringFixed(2))
}

// HasRoute reports whether a routing decision was already stored.
func (p *PurchaseRequest) HasRoute() bool {
	return p.ApprovalTier != ""
}

// AssignBusinessKey sets the business key once. Later calls keep the existing key.
func (p *PurchaseRequest) AssignBusinessKey(gen KeyGenerator) {
	if strings.TrimSpace(p.BusinessKey) != "" {
		return
	}
	p.BusinessKey = gen.Next()
}

// KeyGenerator produces business keys.
type KeyGenerator interface {
	Next() string
}

const BusinessKeyPrefix = "PR-"

// ClockKeyGenerator derives keys from the wall clock in milliseconds and never
// hands out the same suffix twice within a process.
type ClockKeyGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockKeyGenerator(now func() time.Time) *ClockKeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &ClockKeyGenerator{now: now}
}

func (g *ClockKeyGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s%d", BusinessKeyPrefix, ms)
}
