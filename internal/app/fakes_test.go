package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

// fakeBatchStore mimics the storage layer's atomicity with a single mutex:
// each primitive checks and mutates under the lock, so concurrent service
// calls contend the way they would against the real conditional updates.
type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[string]domain.Batch
}

func newFakeBatchStore(batches ...domain.Batch) *fakeBatchStore {
	m := make(map[string]domain.Batch, len(batches))
	for _, b := range batches {
		m[b.ID] = b
	}
	return &fakeBatchStore{batches: m}
}

func (f *fakeBatchStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeBatchStore) Create(_ context.Context, b domain.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches[b.ID] = b
	return nil
}

func (f *fakeBatchStore) Get(_ context.Context, id string) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	return b, nil
}

func (f *fakeBatchStore) ListByItem(_ context.Context, itemID string, includeTerminal bool) ([]domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Batch
	for _, b := range f.batches {
		if b.ItemID != itemID {
			continue
		}
		if !includeTerminal && b.IsTerminal() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBatchStore) TryReserve(_ context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	if b.IsTerminal() {
		return domain.Batch{}, domain.ErrBatchTerminal
	}
	if b.SoldQuantity.Add(b.ReservedQuantity).Add(qty).Cmp(b.TotalQuantity) > 0 {
		return domain.Batch{}, domain.ErrCapacityExceeded
	}
	b.ReservedQuantity = b.ReservedQuantity.Add(qty)
	f.batches[id] = b
	return b, nil
}

func (f *fakeBatchStore) Convert(_ context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	b.ReservedQuantity = decimal.Max(b.ReservedQuantity.Sub(qty), decimal.Zero)
	b.SoldQuantity = b.SoldQuantity.Add(qty)
	f.batches[id] = b
	return b, nil
}

func (f *fakeBatchStore) Release(_ context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	b.ReservedQuantity = decimal.Max(b.ReservedQuantity.Sub(qty), decimal.Zero)
	f.batches[id] = b
	return b, nil
}

func (f *fakeBatchStore) UpdateStatus(_ context.Context, id string, status domain.BatchStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.ErrBatchNotFound
	}
	b.Status = status
	f.batches[id] = b
	return nil
}

func (f *fakeBatchStore) AdjustTotalQuantity(_ context.Context, id string, total decimal.Decimal) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	if b.SoldQuantity.Add(b.ReservedQuantity).Cmp(total) > 0 {
		return domain.Batch{}, domain.ErrInvalidTotalQuantity
	}
	b.TotalQuantity = total
	f.batches[id] = b
	return b, nil
}

func (f *fakeBatchStore) get(id string) domain.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[id]
}

type fakeReservationStore struct {
	mu           sync.Mutex
	reservations map[string]domain.Reservation
}

func newFakeReservationStore(reservations ...domain.Reservation) *fakeReservationStore {
	m := make(map[string]domain.Reservation, len(reservations))
	for _, r := range reservations {
		m[r.ID] = r
	}
	return &fakeReservationStore{reservations: m}
}

func (f *fakeReservationStore) Create(_ context.Context, res domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeReservationStore) Get(_ context.Context, id string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeReservationStore) MarkConverted(_ context.Context, id, orderRef string, now time.Time) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.Outcome != domain.ReservationActive {
		return nil, nil
	}
	res.Outcome = domain.ReservationConverted
	res.OrderReference = orderRef
	res.ResolvedAt = &now
	f.reservations[id] = res
	return &res, nil
}

func (f *fakeReservationStore) MarkReleased(_ context.Context, id string, reason domain.ReleaseReason, now time.Time) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.Outcome != domain.ReservationActive {
		return nil, nil
	}
	res.Outcome = domain.ReservationReleased
	res.ReleasedReason = reason
	res.ResolvedAt = &now
	f.reservations[id] = res
	return &res, nil
}

func (f *fakeReservationStore) ListExpired(_ context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.Outcome == domain.ReservationActive && res.ExpiresAt.Before(now) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReservationStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}
