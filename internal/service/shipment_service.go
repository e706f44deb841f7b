package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/logger"
	"shipment-orchestrator/internal/model"
)

type ShipmentService struct {
	resolver     *ConfigResolver
	refs         ShipmentReferenceRepository
	fulfillments FulfillmentRepository
	clients      CarrierClientFactory
	queue        JobQueue
	buyDelay     time.Duration
	retries      int
	logger       *zap.Logger
}

func NewShipmentService(
	resolver *ConfigResolver,
	refs ShipmentReferenceRepository,
	fulfillments FulfillmentRepository,
	clients CarrierClientFactory,
	queue JobQueue,
	buyDelay time.Duration,
	retries int,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		resolver:     resolver,
		refs:         refs,
		fulfillments: fulfillments,
		clients:      clients,
		queue:        queue,
		buyDelay:     buyDelay,
		retries:      retries,
		logger:       logger.Named("shipments"),
	}
}

// CreateShipment crea el envío remoto para un lote de órdenes con el mismo
// método de envío y deja programado el paso "buy".
// Las validaciones del lote ocurren antes de cualquier escritura o llamada al carrier.
func (s *ShipmentService) CreateShipment(ctx context.Context, orders []*model.Order, lineIDs []string, packageSize string) (*carrier.Shipment, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	methodID, err := sharedShippingMethod(orders)
	if err != nil {
		return nil, err
	}

	phone, email := resolveContact(orders[0])
	if phone == "" || email == "" {
		return nil, fmt.Errorf("%w (orden %s)", ErrMissingContactInformation, orders[0].Code)
	}

	if len(lineIDs) == 0 {
		lineIDs = allLineIDs(orders)
	}

	cfg, err := s.resolver.ForShippingMethod(ctx, methodID)
	if err != nil {
		return nil, err
	}

	ref := &model.ShipmentReference{
		ID:           uuid.NewString(),
		OrderLineIDs: lineIDs,
		ConfigID:     cfg.ID,
	}
	if err := s.refs.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("guardando referencia de envío: %w", err)
	}

	req := buildShipmentRequest(orders[0], cfg.Service, packageSize, phone, email)
	shipment, err := s.clients(cfg).CreateShipment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creando envío en el carrier: %w", err)
	}

	if err := s.refs.SetRemoteShipmentID(ctx, ref.ID, shipment.ID); err != nil {
		return nil, fmt.Errorf("asociando envío %d a la referencia: %w", shipment.ID, err)
	}

	fulfillment := &model.Fulfillment{
		ID:           uuid.NewString(),
		TrackingCode: strconv.FormatInt(shipment.ID, 10),
		Method:       methodID,
		OrderLineIDs: lineIDs,
		State:        model.FulfillmentPending,
	}
	if err := s.fulfillments.Create(ctx, fulfillment); err != nil {
		return nil, fmt.Errorf("creando fulfillment: %w", err)
	}

	job := dto.OrderProgressJob{
		Ctx:        jobContext(ctx),
		ConfigID:   cfg.ID,
		ShipmentID: shipment.ID,
		Step:       dto.StepBuy,
	}
	if err := s.queue.Add(ctx, job, JobOptions{Retries: s.retries, Delay: s.buyDelay}); err != nil {
		return nil, fmt.Errorf("encolando paso buy: %w", err)
	}

	s.logger.Info("Envío creado",
		zap.Int64("shipment_id", shipment.ID),
		zap.String("reference_id", ref.ID),
		zap.String("config_id", cfg.ID),
		zap.Int("lines", len(lineIDs)))

	return shipment, nil
}

func sharedShippingMethod(orders []*model.Order) (string, error) {
	methods := map[string]bool{}
	for _, o := range orders {
		methods[o.ShippingMethodID] = true
	}
	if len(methods) != 1 {
		return "", ErrInconsistentShippingMethod
	}
	method := orders[0].ShippingMethodID
	if method == "" {
		return "", ErrInconsistentShippingMethod
	}
	return method, nil
}

// resolveContact: dirección de envío → facturación → perfil del cliente.
func resolveContact(o *model.Order) (phone, email string) {
	phone = firstNonEmpty(o.ShippingAddress.PhoneNumber, o.BillingAddress.PhoneNumber, o.Customer.PhoneNumber)
	email = firstNonEmpty(o.ShippingAddress.EmailAddress, o.BillingAddress.EmailAddress, o.Customer.EmailAddress)
	return phone, email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func allLineIDs(orders []*model.Order) []string {
	var out []string
	for _, o := range orders {
		for _, l := range o.Lines {
			out = append(out, l.ID)
		}
	}
	return out
}

func buildShipmentRequest(o *model.Order, service, packageSize, phone, email string) carrier.CreateShipmentRequest {
	addr := o.ShippingAddress
	req := carrier.CreateShipmentRequest{
		Receiver: carrier.Receiver{
			Name:      addr.FullName,
			FirstName: o.Customer.FirstName,
			LastName:  o.Customer.LastName,
			Company:   addr.Company,
			Email:     email,
			Phone:     phone,
			Address: carrier.Address{
				Street:      addr.StreetLine1,
				Line2:       addr.StreetLine2,
				City:        addr.City,
				PostCode:    addr.PostalCode,
				CountryCode: strings.ToUpper(addr.CountryCode),
			},
		},
		Parcels: carrier.Parcel{Template: packageSize},
		Service: service,
	}
	if point := o.CustomFields.PickupPointID; point != "" {
		req.CustomAttributes = &carrier.CustomAttributes{TargetPoint: point}
	}
	return req
}

func jobContext(ctx context.Context) dto.JobContext {
	return dto.JobContext{
		RequestID: logger.RequestID(ctx),
		UserID:    logger.UserID(ctx),
	}
}
