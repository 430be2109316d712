package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// memStore is an in-memory Store whose AcquireCapacity holds a per-event
// mutex until the transaction ends, like SELECT ... FOR UPDATE does.
type memStore struct {
	mu       sync.Mutex
	events   map[string]*memEvent
	bookings map[string]*model.Booking
	seq      atomic.Int64

	// Failure injection.
	failInsert   error
	failAttach   error
	failCommit   error
	failRollback error

	rollbacks atomic.Int64
	// holdLock, when set, is called with the event id while its lock is held.
	holdLock func(eventID string)
}

type memEvent struct {
	lock      sync.Mutex
	title     string
	active    bool
	total     *int
	remaining *int
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[string]*memEvent{},
		bookings: map[string]*model.Booking{},
	}
}

func (s *memStore) addEvent(id string, active bool, seats *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := &memEvent{title: "Event " + id, active: active}
	if seats != nil {
		total, left := *seats, *seats
		ev.total, ev.remaining = &total, &left
	}
	s.events[id] = ev
}

func (s *memStore) remaining(id string) *int {
	s.mu.Lock()
	ev := s.events[id]
	s.mu.Unlock()
	ev.lock.Lock()
	defer ev.lock.Unlock()
	if ev.remaining == nil {
		return nil
	}
	v := *ev.remaining
	return &v
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) bookedSeats(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, b := range s.bookings {
		if b.EventID == eventID {
			sum += b.SeatsBooked
		}
	}
	return sum
}

func (s *memStore) BeginReservation(context.Context) (Tx, error) {
	return &memTx{store: s}, nil
}

type memTx struct {
	store *memStore
	event *memEvent

	newRemaining *int
	decremented  bool
	booking      *model.Booking
	done         bool
}

func (t *memTx) AcquireCapacity(ctx context.Context, eventID string) (Capacity, error) {
	t.store.mu.Lock()
	ev, ok := t.store.events[eventID]
	t.store.mu.Unlock()
	if !ok {
		return Capacity{}, model.ErrNotFound
	}
	ev.lock.Lock()
	t.event = ev
	if t.store.holdLock != nil {
		t.store.holdLock(eventID)
	}
	c := Capacity{EventID: eventID, Title: ev.title, IsActive: ev.active, TotalSeats: ev.total}
	if ev.remaining != nil {
		v := *ev.remaining
		c.SeatsRemaining = &v
	}
	return c, nil
}

func (t *memTx) Decrement(ctx context.Context, n int) (*int, error) {
	if t.event == nil {
		return nil, errors.New("capacity lock not held")
	}
	t.decremented = true
	if t.event.remaining == nil {
		return nil, nil
	}
	if n > *t.event.remaining {
		return nil, &model.InsufficientCapacityError{Remaining: *t.event.remaining, Requested: n}
	}
	v := *t.event.remaining - n
	t.newRemaining = &v
	return &v, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b NewBooking) (*model.Booking, error) {
	if t.store.failInsert != nil {
		return nil, t.store.failInsert
	}
	t.booking = &model.Booking{
		ID:          fmt.Sprintf("b-%d", t.store.seq.Add(1)),
		EventID:     b.EventID,
		UserID:      b.HolderID,
		SeatsBooked: b.Seats,
		SeatLabels:  b.SeatLabels,
		PaymentUTR:  b.PaymentUTR,
		CreatedAt:   time.Now(),
	}
	out := *t.booking
	return &out, nil
}

func (t *memTx) AttachPass(ctx context.Context, bookingID, token string) error {
	if t.store.failAttach != nil {
		return t.store.failAttach
	}
	if t.booking == nil || t.booking.ID != bookingID {
		return model.ErrNotFound
	}
	t.booking.QRToken = &token
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	defer t.release()
	if t.store.failCommit != nil {
		return t.store.failCommit
	}
	if t.newRemaining != nil {
		*t.event.remaining = *t.newRemaining
	}
	if t.booking != nil {
		t.store.mu.Lock()
		t.store.bookings[t.booking.ID] = t.booking
		t.store.mu.Unlock()
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.store.rollbacks.Add(1)
	if t.done {
		return nil
	}
	t.done = true
	t.release()
	return t.store.failRollback
}

func (t *memTx) release() {
	if t.event != nil {
		t.event.lock.Unlock()
		t.event = nil
	}
}
