package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/model"
)

// LabelIngester convierte el stream de la etiqueta en un asset del fulfillment.
type LabelIngester interface {
	Ingest(ctx context.Context, stream io.Reader, trackingCode string) error
}

type StepOptions struct {
	LabelFormat   string
	RequeueDelay  time.Duration // mientras el envío remoto no está listo
	NextStepDelay time.Duration // entre buy y label
	ClaimTimeout  time.Duration // un claim sin confirmar más viejo que esto se puede retomar
	Retries       int
}

// StepExecutor ejecuta un paso por invocación: consulta el envío remoto una vez
// y avanza al siguiente paso o vuelve a encolar el mismo con demora.
type StepExecutor struct {
	resolver *ConfigResolver
	refs     ShipmentReferenceRepository
	clients  CarrierClientFactory
	queue    JobQueue
	labels   LabelIngester
	opts     StepOptions
	logger   *zap.Logger
}

func NewStepExecutor(
	resolver *ConfigResolver,
	refs ShipmentReferenceRepository,
	clients CarrierClientFactory,
	queue JobQueue,
	labels LabelIngester,
	opts StepOptions,
	logger *zap.Logger,
) *StepExecutor {
	if opts.LabelFormat == "" {
		opts.LabelFormat = "pdf"
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 35 * time.Second
	}
	return &StepExecutor{
		resolver: resolver,
		refs:     refs,
		clients:  clients,
		queue:    queue,
		labels:   labels,
		opts:     opts,
		logger:   logger.Named("steps"),
	}
}

// Execute devuelve error sólo ante fallas transitorias; la cola reintenta.
func (e *StepExecutor) Execute(ctx context.Context, job dto.OrderProgressJob) error {
	l := e.logger.With(
		zap.Int64("shipment_id", job.ShipmentID),
		zap.String("step", string(job.Step)),
		zap.String("request_id", job.Ctx.RequestID))

	cfg, err := e.resolver.ByID(ctx, job.ConfigID)
	if err != nil {
		return err
	}
	client := e.clients(cfg)

	shipment, err := client.GetShipment(ctx, job.ShipmentID)
	if err != nil {
		return fmt.Errorf("consultando envío %d: %w", job.ShipmentID, err)
	}

	switch job.Step {
	case dto.StepBuy:
		return e.buy(ctx, l, client, shipment, job)
	case dto.StepLabel:
		return e.label(ctx, l, client, shipment, job)
	default:
		// reintentar no lo arregla
		l.Error("Paso desconocido, se descarta el job")
		return nil
	}
}

func (e *StepExecutor) buy(ctx context.Context, l *zap.Logger, client CarrierClient, shipment *carrier.Shipment, job dto.OrderProgressJob) error {
	if !readyToBuy(shipment) {
		l.Debug("Envío aún no listo para comprar", zap.String("status", shipment.Status))
		return e.enqueue(ctx, job, dto.StepBuy, e.opts.RequeueDelay)
	}

	offerID := shipment.Offers[0].ID
	claim, err := e.refs.ClaimPurchase(ctx, shipment.ID, offerID, e.opts.ClaimTimeout)
	if err != nil {
		return fmt.Errorf("registrando compra: %w", err)
	}

	switch claim {
	case model.PurchaseConfirmed:
		l.Info("Compra ya confirmada, se omite", zap.Int64("offer_id", offerID))
	case model.PurchaseInFlight:
		// sin confirmar no sabemos si se compró; la cola reintenta hasta que
		// el otro intento confirme o el claim venza
		return fmt.Errorf("oferta %d: %w", offerID, ErrPurchaseInFlight)
	default:
		if _, err := client.BuyOffer(ctx, shipment.ID, offerID); err != nil {
			buyErr := fmt.Errorf("comprando oferta %d: %w", offerID, err)
			if rerr := e.refs.ReleasePurchase(ctx, shipment.ID); rerr != nil {
				l.Error("No se pudo liberar la compra", zap.Error(rerr))
				return errors.Join(buyErr, fmt.Errorf("liberando compra: %w", rerr))
			}
			return buyErr
		}
		if err := e.refs.ConfirmPurchase(ctx, shipment.ID, offerID); err != nil {
			// la compra remota ya ocurrió: no reintentar el buy
			l.Error("Compra realizada pero no confirmada", zap.Int64("offer_id", offerID), zap.Error(err))
		}
		l.Info("Oferta comprada", zap.Int64("offer_id", offerID))
	}

	return e.enqueue(ctx, job, dto.StepLabel, e.opts.NextStepDelay)
}

func (e *StepExecutor) label(ctx context.Context, l *zap.Logger, client CarrierClient, shipment *carrier.Shipment, job dto.OrderProgressJob) error {
	if shipment.Status == carrier.StatusCreated {
		l.Debug("Etiqueta aún no disponible")
		return e.enqueue(ctx, job, dto.StepLabel, e.opts.RequeueDelay)
	}

	stream, err := client.FetchLabel(ctx, shipment.ID, e.opts.LabelFormat)
	if err != nil {
		return fmt.Errorf("descargando etiqueta: %w", err)
	}
	defer stream.Close()

	if err := e.labels.Ingest(ctx, stream, strconv.FormatInt(shipment.ID, 10)); err != nil {
		return fmt.Errorf("guardando etiqueta: %w", err)
	}
	l.Info("Etiqueta procesada")
	return nil
}

// readyToBuy: estado más allá de offer_selected y alguna oferta comprada.
func readyToBuy(s *carrier.Shipment) bool {
	switch s.Status {
	case "", carrier.StatusCreated, carrier.StatusOfferSelected:
		return false
	}
	return s.HasBoughtOffer()
}

// enqueue agenda el paso con presupuesto de reintentos completo: esperar a
// que el carrier esté listo no cuenta como falla.
func (e *StepExecutor) enqueue(ctx context.Context, job dto.OrderProgressJob, step dto.Step, delay time.Duration) error {
	next := job
	next.Step = step
	return e.queue.Add(ctx, next, JobOptions{Retries: e.opts.Retries, Delay: delay})
}
