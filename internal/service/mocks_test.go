package service

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/model"
)

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) FindLatest(ctx context.Context) (*model.CarrierConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CarrierConfig), args.Error(1)
}

func (m *MockConfigRepository) FindByShippingMethod(ctx context.Context, id string) (*model.CarrierConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CarrierConfig), args.Error(1)
}

func (m *MockConfigRepository) FindByID(ctx context.Context, id string) (*model.CarrierConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CarrierConfig), args.Error(1)
}

func (m *MockConfigRepository) FindAll(ctx context.Context) ([]*model.CarrierConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CarrierConfig), args.Error(1)
}

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) Create(ctx context.Context, ref *model.ShipmentReference) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockReferenceRepository) SetRemoteShipmentID(ctx context.Context, refID string, remoteID int64) error {
	return m.Called(ctx, refID, remoteID).Error(0)
}

func (m *MockReferenceRepository) FindByRemoteShipmentID(ctx context.Context, remoteID int64) (*model.ShipmentReference, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShipmentReference), args.Error(1)
}

func (m *MockReferenceRepository) ClaimPurchase(ctx context.Context, remoteID, offerID int64, staleAfter time.Duration) (model.PurchaseClaim, error) {
	args := m.Called(ctx, remoteID, offerID, staleAfter)
	return args.Get(0).(model.PurchaseClaim), args.Error(1)
}

func (m *MockReferenceRepository) ConfirmPurchase(ctx context.Context, remoteID, offerID int64) error {
	return m.Called(ctx, remoteID, offerID).Error(0)
}

func (m *MockReferenceRepository) ReleasePurchase(ctx context.Context, remoteID int64) error {
	return m.Called(ctx, remoteID).Error(0)
}

type MockFulfillmentRepository struct {
	mock.Mock
}

func (m *MockFulfillmentRepository) Create(ctx context.Context, f *model.Fulfillment) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFulfillmentRepository) FindByTrackingCode(ctx context.Context, code string) (*model.Fulfillment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Fulfillment), args.Error(1)
}

func (m *MockFulfillmentRepository) UpdateState(ctx context.Context, f *model.Fulfillment, next model.FulfillmentState, reason string) error {
	return m.Called(ctx, f, next, reason).Error(0)
}

func (m *MockFulfillmentRepository) AttachLabel(ctx context.Context, f *model.Fulfillment, assetID string) error {
	return m.Called(ctx, f, assetID).Error(0)
}

type MockUnreconciledRepository struct {
	mock.Mock
}

func (m *MockUnreconciledRepository) Save(ctx context.Context, e *model.UnreconciledEvent) error {
	return m.Called(ctx, e).Error(0)
}

type MockCarrierClient struct {
	mock.Mock
}

func (m *MockCarrierClient) CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (*carrier.Shipment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Shipment), args.Error(1)
}

func (m *MockCarrierClient) GetShipment(ctx context.Context, id int64) (*carrier.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Shipment), args.Error(1)
}

func (m *MockCarrierClient) BuyOffer(ctx context.Context, shipmentID, offerID int64) (*carrier.Shipment, error) {
	args := m.Called(ctx, shipmentID, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Shipment), args.Error(1)
}

func (m *MockCarrierClient) FetchLabel(ctx context.Context, shipmentID int64, format string) (io.ReadCloser, error) {
	args := m.Called(ctx, shipmentID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockCarrierClient) factory() CarrierClientFactory {
	return func(*model.CarrierConfig) CarrierClient { return m }
}

type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Add(ctx context.Context, job dto.OrderProgressJob, opts JobOptions) error {
	return m.Called(ctx, job, opts).Error(0)
}

type MockAssetCreator struct {
	mock.Mock
}

func (m *MockAssetCreator) CreateFromFileStream(ctx context.Context, file *os.File) (*model.Asset, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

type MockLabelIngester struct {
	mock.Mock
}

func (m *MockLabelIngester) Ingest(ctx context.Context, stream io.Reader, trackingCode string) error {
	return m.Called(ctx, stream, trackingCode).Error(0)
}

func validConfig() *model.CarrierConfig {
	return &model.CarrierConfig{
		ID:               "cfg-1",
		Host:             "https://api-shipx",
		APIKey:           "key",
		Service:          "inpost_locker_standard",
		OrganizationID:   "org-1",
		ShippingMethodID: "sm-1",
	}
}
