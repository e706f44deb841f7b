package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/model"
)

type stepFixture struct {
	configs *MockConfigRepository
	refs    *MockReferenceRepository
	client  *MockCarrierClient
	queue   *MockJobQueue
	labels  *MockLabelIngester
	exec    *StepExecutor
}

const claimTimeout = 30 * time.Second

var (
	requeue  = JobOptions{Retries: 3, Delay: 5 * time.Second}
	nextStep = JobOptions{Retries: 3, Delay: time.Second}
)

func newStepFixture() *stepFixture {
	f := &stepFixture{
		configs: new(MockConfigRepository),
		refs:    new(MockReferenceRepository),
		client:  new(MockCarrierClient),
		queue:   new(MockJobQueue),
		labels:  new(MockLabelIngester),
	}
	f.configs.On("FindByID", mock.Anything, "cfg-1").Return(validConfig(), nil)
	f.exec = NewStepExecutor(
		NewConfigResolver(f.configs, zap.NewNop()),
		f.refs, f.client.factory(), f.queue, f.labels,
		StepOptions{RequeueDelay: 5 * time.Second, NextStepDelay: time.Second, ClaimTimeout: claimTimeout, Retries: 3},
		zap.NewNop())
	return f
}

func job(step dto.Step) dto.OrderProgressJob {
	return dto.OrderProgressJob{
		Ctx:        dto.JobContext{RequestID: "req-1"},
		ConfigID:   "cfg-1",
		ShipmentID: 77,
		Step:       step,
	}
}

func withStep(step dto.Step) interface{} {
	return mock.MatchedBy(func(j dto.OrderProgressJob) bool {
		return j.Step == step && j.ShipmentID == 77 && j.Ctx.RequestID == "req-1"
	})
}

func boughtShipment() *carrier.Shipment {
	return &carrier.Shipment{
		ID: 77, Status: carrier.StatusBought,
		Offers: []carrier.Offer{{ID: 42, Status: carrier.StatusBought}},
	}
}

func TestExecuteBuy_NotReadyRequeues(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(&carrier.Shipment{ID: 77, Status: carrier.StatusCreated}, nil)
	f.queue.On("Add", ctx, withStep(dto.StepBuy), requeue).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))

	f.client.AssertNotCalled(t, "BuyOffer", mock.Anything, mock.Anything, mock.Anything)
	f.refs.AssertNotCalled(t, "ClaimPurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNumberOfCalls(t, "Add", 1)
}

func TestExecuteBuy_OfferSelectedIsNotReady(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(&carrier.Shipment{
		ID: 77, Status: carrier.StatusOfferSelected,
		Offers: []carrier.Offer{{ID: 42, Status: carrier.StatusBought}},
	}, nil)
	f.queue.On("Add", ctx, withStep(dto.StepBuy), requeue).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))
	f.client.AssertNotCalled(t, "BuyOffer", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBuy_BuysFirstOfferOnce(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	shipment := &carrier.Shipment{
		ID: 77, Status: carrier.StatusBought,
		Offers: []carrier.Offer{{ID: 42, Status: carrier.StatusBought}, {ID: 43, Status: "available"}},
	}
	f.client.On("GetShipment", ctx, int64(77)).Return(shipment, nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseClaimed, nil)
	f.client.On("BuyOffer", ctx, int64(77), int64(42)).Return(shipment, nil)
	f.refs.On("ConfirmPurchase", ctx, int64(77), int64(42)).Return(nil)
	f.queue.On("Add", ctx, withStep(dto.StepLabel), nextStep).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))

	f.client.AssertNumberOfCalls(t, "BuyOffer", 1)
	f.refs.AssertNumberOfCalls(t, "ConfirmPurchase", 1)
	f.queue.AssertNumberOfCalls(t, "Add", 1)
	f.refs.AssertNotCalled(t, "ReleasePurchase", mock.Anything, mock.Anything)
}

func TestExecuteBuy_ConfirmedPurchaseIsSkipped(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(boughtShipment(), nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseConfirmed, nil)
	f.queue.On("Add", ctx, withStep(dto.StepLabel), nextStep).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))

	f.client.AssertNotCalled(t, "BuyOffer", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNumberOfCalls(t, "Add", 1)
}

func TestExecuteBuy_UnconfirmedClaimIsNotTrusted(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(boughtShipment(), nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseInFlight, nil)

	err := f.exec.Execute(ctx, job(dto.StepBuy))

	assert.ErrorIs(t, err, ErrPurchaseInFlight)
	f.client.AssertNotCalled(t, "BuyOffer", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteBuy_FailedPurchaseReleasesClaim(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(boughtShipment(), nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseClaimed, nil)
	f.client.On("BuyOffer", ctx, int64(77), int64(42)).Return(nil, errors.New("timeout"))
	f.refs.On("ReleasePurchase", ctx, int64(77)).Return(nil)

	err := f.exec.Execute(ctx, job(dto.StepBuy))

	require.Error(t, err)
	f.refs.AssertCalled(t, "ReleasePurchase", ctx, int64(77))
	f.refs.AssertNotCalled(t, "ConfirmPurchase", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

// Si la compra falla y tampoco se puede liberar el claim, la redelivery no
// puede asumir que se compró: espera a que el claim venza y compra de nuevo.
func TestExecuteBuy_ReleaseFailureKeepsPurchasePending(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(boughtShipment(), nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseClaimed, nil).Once()
	f.client.On("BuyOffer", ctx, int64(77), int64(42)).Return(nil, errors.New("timeout")).Once()
	f.refs.On("ReleasePurchase", ctx, int64(77)).Return(errors.New("mongo down")).Once()

	err := f.exec.Execute(ctx, job(dto.StepBuy))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "mongo down")

	// redelivery con el claim todavía vigente
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseInFlight, nil).Once()

	err = f.exec.Execute(ctx, job(dto.StepBuy))
	assert.ErrorIs(t, err, ErrPurchaseInFlight)
	f.queue.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)

	// el claim venció y se retoma
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseClaimed, nil).Once()
	f.client.On("BuyOffer", ctx, int64(77), int64(42)).Return(boughtShipment(), nil).Once()
	f.refs.On("ConfirmPurchase", ctx, int64(77), int64(42)).Return(nil).Once()
	f.queue.On("Add", ctx, withStep(dto.StepLabel), nextStep).Return(nil).Once()

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))
	f.client.AssertNumberOfCalls(t, "BuyOffer", 2)
	f.queue.AssertNumberOfCalls(t, "Add", 1)
	mock.AssertExpectationsForObjects(t, f.refs, f.client, f.queue)
}

func TestExecuteBuy_ConfirmFailureStillAdvances(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(boughtShipment(), nil)
	f.refs.On("ClaimPurchase", ctx, int64(77), int64(42), claimTimeout).Return(model.PurchaseClaimed, nil)
	f.client.On("BuyOffer", ctx, int64(77), int64(42)).Return(boughtShipment(), nil)
	f.refs.On("ConfirmPurchase", ctx, int64(77), int64(42)).Return(errors.New("mongo down"))
	f.queue.On("Add", ctx, withStep(dto.StepLabel), nextStep).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepBuy)))
	f.client.AssertNumberOfCalls(t, "BuyOffer", 1)
	f.refs.AssertNotCalled(t, "ReleasePurchase", mock.Anything, mock.Anything)
}

func TestExecuteLabel_NotReadyRequeues(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(&carrier.Shipment{ID: 77, Status: carrier.StatusCreated}, nil)
	f.queue.On("Add", ctx, withStep(dto.StepLabel), requeue).Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepLabel)))

	f.client.AssertNotCalled(t, "FetchLabel", mock.Anything, mock.Anything, mock.Anything)
	f.labels.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteLabel_IngestsLabel(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(&carrier.Shipment{ID: 77, Status: "confirmed"}, nil)
	f.client.On("FetchLabel", ctx, int64(77), "pdf").Return(io.NopCloser(strings.NewReader("%PDF-1.4")), nil)
	f.labels.On("Ingest", ctx, mock.Anything, "77").Return(nil)

	require.NoError(t, f.exec.Execute(ctx, job(dto.StepLabel)))

	f.labels.AssertNumberOfCalls(t, "Ingest", 1)
	f.queue.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_CarrierErrorIsReturned(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(nil, errors.New("503"))

	assert.Error(t, f.exec.Execute(ctx, job(dto.StepBuy)))
}

func TestExecute_UnknownStepIsDropped(t *testing.T) {
	f := newStepFixture()
	ctx := context.Background()
	f.client.On("GetShipment", ctx, int64(77)).Return(&carrier.Shipment{ID: 77, Status: carrier.StatusCreated}, nil)

	assert.NoError(t, f.exec.Execute(ctx, job("ship")))
	f.queue.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}
