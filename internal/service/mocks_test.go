package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/ticketpass/internal/auth"
	"github.com/Shivanand-hulikatti/ticketpass/internal/messaging"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/pass"
	"github.com/Shivanand-hulikatti/ticketpass/internal/reservation"
)

// MockUserStore mocks the user repository
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = "user-1"
	}
	return args.Error(0)
}

func (m *MockUserStore) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTokenIssuer mocks the bearer token service
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(id auth.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

// MockEventStore mocks the event repository
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Create(ctx context.Context, e *model.Event) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		e.ID = "evt-new"
		e.IsActive = true
	}
	return args.Error(0)
}

func (m *MockEventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventStore) Deactivate(ctx context.Context, id, organizerID string) error {
	return m.Called(ctx, id, organizerID).Error(0)
}

func (m *MockEventStore) Delete(ctx context.Context, id, organizerID string) error {
	return m.Called(ctx, id, organizerID).Error(0)
}

// MockReserver mocks the reservation coordinator
type MockReserver struct {
	mock.Mock
}

func (m *MockReserver) Reserve(ctx context.Context, req reservation.Request) (*reservation.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Result), args.Error(1)
}

// MockBookingStore mocks the booking repository
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) ListByUser(ctx context.Context, userID string) ([]model.PassSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PassSummary), args.Error(1)
}

func (m *MockBookingStore) Revoke(ctx context.Context, bookingID, organizerID string) (*model.Booking, error) {
	args := m.Called(ctx, bookingID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStore) FindAdmission(ctx context.Context, bookingID, token string) (*model.Admission, error) {
	args := m.Called(ctx, bookingID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admission), args.Error(1)
}

// MockPublisher mocks the message broker
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev messaging.BookingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockPassVerifier mocks the pass issuer
type MockPassVerifier struct {
	mock.Mock
}

func (m *MockPassVerifier) Verify(token string) (*pass.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pass.Claims), args.Error(1)
}

func ctx() context.Context { return context.Background() }
