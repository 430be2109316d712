package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// MockAuthService mocks the auth service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*service.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

// MockEventService mocks the event service
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, organizerID string, req service.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, organizerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventService) ListOrganizerEvents(ctx context.Context, organizerID string) ([]model.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventService) DeactivateEvent(ctx context.Context, id, organizerID string) error {
	return m.Called(ctx, id, organizerID).Error(0)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id, organizerID string) error {
	return m.Called(ctx, id, organizerID).Error(0)
}

// MockBookingService mocks the booking service
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, holderID string, req service.CreateBookingRequest) (*service.Receipt, error) {
	args := m.Called(ctx, holderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Receipt), args.Error(1)
}

func (m *MockBookingService) ListMine(ctx context.Context, holderID string) ([]model.PassSummary, error) {
	args := m.Called(ctx, holderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PassSummary), args.Error(1)
}

func (m *MockBookingService) Revoke(ctx context.Context, bookingID, organizerID string) error {
	return m.Called(ctx, bookingID, organizerID).Error(0)
}

// MockPassVerifier mocks the verification service
type MockPassVerifier struct {
	mock.Mock
}

func (m *MockPassVerifier) Verify(ctx context.Context, token string) (*model.Admission, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admission), args.Error(1)
}

// MockPinger mocks the database pool
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
