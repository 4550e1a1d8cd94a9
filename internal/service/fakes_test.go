package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/metrics"
	"purchaseflow/internal/model"
	"purchaseflow/internal/repository"
	"purchaseflow/internal/rules"
	"purchaseflow/internal/workflow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type fakeRequests struct {
	mu   sync.Mutex
	rows map[string]model.PurchaseRequest
	// staleWrites makes the next n versioned updates lose their race.
	staleWrites int
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{rows: map[string]model.PurchaseRequest{}}
}

func (f *fakeRequests) Create(_ context.Context, req *model.PurchaseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.rows[req.BusinessKey]; dup {
		return errors.New("duplicate business key")
	}
	if req.Version == 0 {
		req.Version = 1
	}
	f.rows[req.BusinessKey] = *req
	return nil
}

func (f *fakeRequests) FindByBusinessKey(_ context.Context, key string) (*model.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f *fakeRequests) UpdateVersioned(_ context.Context, req *model.PurchaseRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleWrites > 0 {
		f.staleWrites--
		return false, nil
	}
	cur, ok := f.rows[req.BusinessKey]
	if !ok || cur.Version != req.Version {
		return false, nil
	}
	req.Version++
	f.rows[req.BusinessKey] = *req
	return true, nil
}

func (f *fakeRequests) List(_ context.Context, filter repository.PurchaseRequestFilter) ([]model.PurchaseRequest, int64, error) {
	all := f.sorted()
	out := make([]model.PurchaseRequest, 0)
	for _, r := range all {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Department != "" && r.Department != filter.Department {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequests) ListOpen(_ context.Context) ([]model.PurchaseRequest, error) {
	out := make([]model.PurchaseRequest, 0)
	for _, r := range f.sorted() {
		if !r.Status.IsTerminal() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRequests) CountByStatus(_ context.Context) (map[model.Status]int64, error) {
	counts := map[model.Status]int64{}
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, r := range f.sorted() {
		counts[r.Status]++
	}
	return counts, nil
}

func (f *fakeRequests) TotalsBy(_ context.Context, column string) ([]repository.GroupTotal, error) {
	groups := map[string]*repository.GroupTotal{}
	keys := make([]string, 0)
	for _, r := range f.sorted() {
		k := r.Department
		if column == "category" {
			k = string(r.Category)
		}
		g, ok := groups[k]
		if !ok {
			g = &repository.GroupTotal{Key: k}
			groups[k] = g
			keys = append(keys, k)
		}
		g.Count++
		g.Total = g.Total.Add(r.TotalAmount)
	}
	out := make([]repository.GroupTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out, nil
}

func (f *fakeRequests) Aggregate(_ context.Context) (repository.Aggregates, error) {
	agg := repository.Aggregates{}
	sum := decimal.Zero
	for _, r := range f.sorted() {
		agg.Total++
		sum = sum.Add(r.TotalAmount)
		if r.Status == model.StatusApproved {
			agg.ApprovedAmount = agg.ApprovedAmount.Add(r.TotalAmount)
		}
	}
	if agg.Total > 0 {
		agg.AverageAmount = sum.Div(decimal.NewFromInt(agg.Total))
	}
	return agg, nil
}

func (f *fakeRequests) get(key string) model.PurchaseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[key]
}

func (f *fakeRequests) put(req model.PurchaseRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[req.BusinessKey] = req
}

func (f *fakeRequests) sorted() []model.PurchaseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PurchaseRequest, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessKey < out[j].BusinessKey })
	return out
}

type fakeAudits struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAudits) Log(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudits) List(_ context.Context, key string, _, _ int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditLog, 0)
	for _, e := range f.entries {
		if key == "" || e.BusinessKey == key {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAudits) actions(key string) []string {
	logs, _, _ := f.List(context.Background(), key, 1, 100)
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

type fakeOutbox struct {
	mu   sync.Mutex
	rows []model.Notification
}

func (f *fakeOutbox) Enqueue(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeOutbox) ClaimDue(_ context.Context, now time.Time, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, 0)
	for _, n := range f.rows {
		if n.Status == model.DeliveryPending && !n.NextAttemptAt.After(now) && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeOutbox) Save(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == n.ID {
			f.rows[i] = *n
			return nil
		}
	}
	return errors.New("notification not found")
}

func (f *fakeOutbox) all() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.rows...)
}

type fakeStarter struct {
	mu    sync.Mutex
	err   error
	calls []workflow.Variables
}

func (f *fakeStarter) Start(_ context.Context, key string, vars workflow.Variables) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, vars)
	if f.err != nil {
		return "", f.err
	}
	return "proc-" + key, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (f *fakePublisher) Publish(_ string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := payload.(StatusEvent); ok {
		f.events = append(f.events, ev)
	}
}

type fixture struct {
	deps      Deps
	requests  *fakeRequests
	audits    *fakeAudits
	outbox    *fakeOutbox
	starter   *fakeStarter
	publisher *fakePublisher
	clock     *time.Time
}

func newFixture() *fixture {
	now := t0
	f := &fixture{
		requests:  newFakeRequests(),
		audits:    &fakeAudits{},
		outbox:    &fakeOutbox{},
		starter:   &fakeStarter{},
		publisher: &fakePublisher{},
		clock:     &now,
	}
	limits := rules.DefaultLimits()
	f.deps = Deps{
		TxManager: fakeTx{},
		Requests:  f.requests,
		Audits:    f.audits,
		Outbox:    f.outbox,
		Locker:    lifecycle.NewKeyedMutex(),
		Engine:    rules.NewEngine(limits),
		Validator: rules.NewValidator(limits),
		Contacts: rules.Contacts{
			Supervisor: "supervisor@corp.test",
			Manager:    "manager@corp.test",
			CEO:        "ceo@corp.test",
			Fallback:   "admin@corp.test",
		},
		Keys:      model.NewClockKeyGenerator(func() time.Time { return t0 }),
		Starter:   f.starter,
		Metrics:   metrics.New(),
		Publisher: f.publisher,
		Now:       func() time.Time { return *f.clock },
	}
	return f
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func validDTO() PurchaseRequestDTO {
	return PurchaseRequestDTO{
		RequesterName:  "Ana Torres",
		RequesterEmail: "ana.torres@corp.test",
		Department:     "Operations",
		Description:    "Replacement laptops for the field team",
		TotalAmount:    amount(1500),
		Currency:       "USD",
		Category:       "SOFTWARE",
		Priority:       "NORMAL",
		SupplierName:   "Acme Supplies",
		SupplierEmail:  "sales@acme.test",
	}
}
