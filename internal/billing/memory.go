package billing

import (
	"context"
	"fmt"
	"sync"
)

// MemoryProvider is an in-process Provider for tests and local development.
// New bills start WAITING until SetStatus moves them.
type MemoryProvider struct {
	mu          sync.Mutex
	payURLBase  string
	bills       map[string]BillRequest
	statuses    map[string]string
	statusErrs  map[string]error
	createErr   error
	payURL      string
	createCalls int
	statusCalls int
}

// NewMemoryProvider returns a provider whose pay urls are payURLBase + "/" + bill id.
func NewMemoryProvider(payURLBase string) *MemoryProvider {
	return &MemoryProvider{
		payURLBase: payURLBase,
		bills:      make(map[string]BillRequest),
		statuses:   make(map[string]string),
		statusErrs: make(map[string]error),
	}
}

// CreateBill records the bill and returns its pay url.
func (m *MemoryProvider) CreateBill(_ context.Context, req BillRequest) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return Bill{}, m.createErr
	}
	m.bills[req.BillID] = req
	m.statuses[req.BillID] = StatusWaiting

	payURL := m.payURL
	if payURL == "" {
		payURL = fmt.Sprintf("%s/%s", m.payURLBase, req.BillID)
	}
	return Bill{BillID: req.BillID, PayURL: payURL, Status: StatusWaiting}, nil
}

// BillStatus returns the recorded status; unknown bills have none.
func (m *MemoryProvider) BillStatus(_ context.Context, billID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if err := m.statusErrs[billID]; err != nil {
		return "", err
	}
	status, ok := m.statuses[billID]
	if !ok {
		return "", ErrNoStatus
	}
	return status, nil
}

// SetStatus moves a bill to the given provider status.
func (m *MemoryProvider) SetStatus(billID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[billID] = status
}

// ForgetBill drops the provider status so lookups report none.
func (m *MemoryProvider) ForgetBill(billID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, billID)
}

// FailStatus makes status lookups for billID return err. A nil err clears it.
func (m *MemoryProvider) FailStatus(billID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.statusErrs, billID)
		return
	}
	m.statusErrs[billID] = err
}

// FailCreate makes subsequent CreateBill calls return err. A nil err clears it.
func (m *MemoryProvider) FailCreate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// UsePayURL fixes the pay url returned for every new bill.
func (m *MemoryProvider) UsePayURL(payURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payURL = payURL
}

// Bills returns the issued bill requests keyed by bill id.
func (m *MemoryProvider) Bills() map[string]BillRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]BillRequest, len(m.bills))
	for id, b := range m.bills {
		out[id] = b
	}
	return out
}

// CreateCalls reports how many times CreateBill ran.
func (m *MemoryProvider) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// StatusCalls reports how many times BillStatus ran.
func (m *MemoryProvider) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}
