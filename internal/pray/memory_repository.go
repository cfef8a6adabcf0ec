package pray

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	prays    map[int64]Pray
	payments map[int64]Payment
	byPray   map[int64]int64
	writes   int
}

// NewMemoryRepository builds an in-memory repository for tests and development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		prays:    make(map[int64]Pray),
		payments: make(map[int64]Payment),
		byPray:   make(map[int64]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, p Pray, payment Payment) (Pray, Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.LiveNames = append([]string(nil), p.LiveNames...)
	p.RipNames = append([]string(nil), p.RipNames...)
	r.nextID++
	payment.ID = r.nextID
	payment.PrayID = p.ID

	r.prays[p.ID] = p
	r.payments[payment.ID] = payment
	r.byPray[p.ID] = payment.ID
	r.writes++
	return p, payment, nil
}

func (r *memoryRepository) Get(_ context.Context, id int64) (Pray, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prays[id]
	if !ok {
		return Pray{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prays[id]; !ok {
		return ErrNotFound
	}
	if paymentID, ok := r.byPray[id]; ok {
		delete(r.payments, paymentID)
		delete(r.byPray, id)
	}
	delete(r.prays, id)
	r.writes++
	return nil
}

func (r *memoryRepository) PaymentByPray(_ context.Context, prayID int64) (Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paymentID, ok := r.byPray[prayID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return r.payments[paymentID], nil
}

func (r *memoryRepository) ListUnpaid(_ context.Context) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for _, payment := range r.payments {
		if payment.Status == StatusUnpaid {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) ListPaid(_ context.Context, category Category) ([]Pray, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Pray
	for _, p := range r.prays {
		if p.Category == category && p.Status == StatusPaid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) MarkPaid(_ context.Context, payment Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prays[payment.PrayID]
	if !ok {
		return false, ErrNotFound
	}
	stored, ok := r.payments[payment.ID]
	if !ok {
		return false, ErrNotFound
	}
	if stored.Status == StatusPaid && p.Status == StatusPaid {
		return false, nil
	}
	stored.Status = StatusPaid
	p.Status = StatusPaid
	r.payments[stored.ID] = stored
	r.prays[p.ID] = p
	r.writes++
	return true, nil
}
