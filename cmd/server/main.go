package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/config"
	"shipment-orchestrator/internal/controller"
	"shipment-orchestrator/internal/logger"
	"shipment-orchestrator/internal/middleware"
	"shipment-orchestrator/internal/model"
	"shipment-orchestrator/internal/rabbit"
	"shipment-orchestrator/internal/repository"
	"shipment-orchestrator/internal/service"
	"shipment-orchestrator/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Error conectando a MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDBName)

	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		log.Fatal("Error creando índices", zap.Error(err))
	}

	// Bucket de etiquetas
	objects, err := storage.NewS3ObjectStorage(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Error configurando S3", zap.Error(err))
	}
	if err := objects.EnsureBucket(connectCtx); err != nil {
		log.Fatal("Error verificando el bucket", zap.Error(err))
	}
	log.Info("Bucket de etiquetas listo", zap.String("bucket", objects.Bucket()))

	// Conexión a RabbitMQ: un canal para publicar y otro para consumir
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("Error conectando a RabbitMQ", zap.Error(err))
	}
	defer conn.Close()
	pubCh, err := conn.Channel()
	if err != nil {
		log.Fatal("Error creando canal de publicación", zap.Error(err))
	}
	consumeCh, err := conn.Channel()
	if err != nil {
		log.Fatal("Error creando canal de consumo", zap.Error(err))
	}

	// Repositorios
	configRepo := repository.NewMongoCarrierConfigRepository(db)
	refRepo := repository.NewMongoShipmentReferenceRepository(db)
	fulfillmentRepo := repository.NewMongoFulfillmentRepository(db)
	assetRepo := repository.NewMongoAssetRepository(db)
	unreconciledRepo := repository.NewMongoUnreconciledEventRepository(db)

	// Servicios
	httpClient := &http.Client{Timeout: cfg.CarrierTimeout}
	clients := func(c *model.CarrierConfig) service.CarrierClient {
		return carrier.NewClient(c, httpClient)
	}

	queue := rabbit.NewQueue(pubCh, cfg.Queue.Name, log)
	resolver := service.NewConfigResolver(configRepo, log)
	assets := service.NewAssetService(objects, assetRepo, log)
	labels := service.NewLabelIngestion(fulfillmentRepo, assets, unreconciledRepo, cfg.LabelTempDir, log)
	shipments := service.NewShipmentService(resolver, refRepo, fulfillmentRepo, clients, queue,
		cfg.Queue.BuyDelay, cfg.Queue.JobRetries, log)
	steps := service.NewStepExecutor(resolver, refRepo, clients, queue, labels, service.StepOptions{
		LabelFormat:   cfg.LabelFormat,
		RequeueDelay:  cfg.Queue.RequeueDelay,
		NextStepDelay: cfg.Queue.BuyDelay,
		ClaimTimeout:  cfg.CarrierTimeout + 5*time.Second, // una compra viva no puede durar más que el cliente HTTP
		Retries:       cfg.Queue.JobRetries,
	}, log)
	reconciler := service.NewWebhookReconciler(refRepo, fulfillmentRepo, unreconciledRepo, log)
	authService := service.NewAuthService(cfg.AuthURL)
	orderClient := service.NewOrderClient(cfg.OrdersURL)

	consumer := rabbit.NewOrderProgressConsumer(queue, steps, cfg.Queue.RetryBackoff, log)
	if err := rabbit.SetupConsumers(ctx, consumeCh, queue, consumer, cfg.Queue.Prefetch, cfg.Queue.Workers, log); err != nil {
		log.Fatal("Error iniciando consumidores", zap.Error(err))
	}

	// Handlers
	shipmentCtrl := controller.NewShipmentController(shipments, orderClient, refRepo, fulfillmentRepo)
	webhookCtrl := controller.NewWebhookController(reconciler)
	carrierCtrl := controller.NewCarrierController(resolver)

	// Router
	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))

	// Rutas públicas
	r.POST("/webhooks/carrier", webhookCtrl.Receive)
	r.GET("/carrier/status", carrierCtrl.Status)
	r.GET("/carrier/geowidget", carrierCtrl.GeoWidget)

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))
	auth.POST("/shipments", shipmentCtrl.CreateShipment)

	// Rutas admin
	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/carrier-configs", carrierCtrl.ListConfigs)
	admin.GET("/shipments/:shipmentId", shipmentCtrl.GetShipment)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Shipment orchestrator ejecutándose", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error en el servidor HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Apagando")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error cerrando el servidor", zap.Error(err))
	}
}
