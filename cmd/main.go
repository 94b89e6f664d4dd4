package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/cancel_booking"
	checkOutBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/check_out_booking"
	completeBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/complete_booking"
	confirmDepositHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/confirm_deposit"
	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	createPromotionHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_promotion"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getPromotionHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_promotion"
	getVehicleAvailabilityHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_vehicle_availability"
	listBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_bookings"
	listPromotionsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_promotions"
	pollDepositHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/poll_deposit"
	stripeWebhookHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/stripe_webhook"
	updatePromotionHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/update_promotion"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/config"
	"github.com/m04kA/SMC-RentalService/internal/infra/cache"
	identityServiceClient "github.com/m04kA/SMC-RentalService/internal/integrations/identityservice"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
	"github.com/m04kA/SMC-RentalService/internal/integrations/payment"
	vehicleServiceClient "github.com/m04kA/SMC-RentalService/internal/integrations/vehicleservice"
	"github.com/m04kA/SMC-RentalService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/lifecycle"
	promotionsService "github.com/m04kA/SMC-RentalService/internal/service/promotions"
	confirmDepositUC "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
	createBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	getVehicleAvailabilityUC "github.com/m04kA/SMC-RentalService/internal/usecase/get_vehicle_availability"
	"github.com/m04kA/SMC-RentalService/internal/worker/depositpoller"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

func main() {
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-RentalService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаем хранилище
	store, err := openStorage(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()
	log.Info("Storage initialized (driver=%s)", cfg.Storage.Driver)

	// Инициализируем интеграционных клиентов
	identityClient := identityServiceClient.NewClient(
		cfg.IdentityService.URL,
		config.Seconds(cfg.IdentityService.Timeout),
		config.Seconds(cfg.IdentityService.ActorTTL),
		log,
	)
	vehicleClient := vehicleServiceClient.NewClient(
		cfg.VehicleService.URL,
		config.Seconds(cfg.VehicleService.Timeout),
	)
	log.Info("Integration clients initialized (IdentityService=%s timeout=%ds, VehicleService=%s timeout=%ds)",
		cfg.IdentityService.URL, cfg.IdentityService.Timeout, cfg.VehicleService.URL, cfg.VehicleService.Timeout)

	// Тарифы читаются через redis, если он настроен
	var rateCards createBookingUC.RateCardProvider = vehicleClient
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rateCards = cache.NewRateCards(redisClient, vehicleClient, config.Seconds(cfg.Redis.RateCardTTL), log)
		log.Info("Rate card cache enabled (redis=%s ttl=%ds)", cfg.Redis.Addr, cfg.Redis.RateCardTTL)
	}

	// Уведомления в kafka, без брокеров отправка отключена
	var writer notifier.MessageWriter
	if len(cfg.Kafka.Brokers) > 0 {
		writer = notifier.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("Notifications enabled (brokers=%v topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		log.Warn("Kafka brokers are not configured, notifications disabled")
	}
	bookingNotifier := notifier.New(writer, config.Seconds(cfg.Kafka.WriteTimeout), log)

	paymentProvider := payment.NewStripeProvider(
		cfg.Payment.StripeSecretKey,
		cfg.Payment.StripeWebhookSecret,
		cfg.Payment.Currency,
		log,
	)

	// Инициализируем сервисы
	guard := availability.NewGuard(store.reservations, metricsCollector, log)
	machine := lifecycle.NewMachine(store.bookings, guard, paymentProvider, store.txManager, log)
	bookingSvc := bookingsService.NewService(store.bookings, machine, bookingNotifier, log)
	promotionSvc := promotionsService.NewService(store.promotions, log)

	// Инициализируем use cases
	confirmDepositUseCase := confirmDepositUC.NewUseCase(
		store.bookings,
		machine,
		bookingNotifier,
		metricsCollector,
		config.Seconds(cfg.Payment.ConfirmTimeout),
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		store.bookings,
		store.promotions,
		guard,
		vehicleClient,
		rateCards,
		identityClient,
		paymentProvider,
		machine,
		bookingNotifier,
		metricsCollector,
		store.txManager,
		log,
	)

	getVehicleAvailabilityUseCase := getVehicleAvailabilityUC.NewUseCase(
		guard,
		vehicleClient,
		rateCards,
		log,
	)

	// Поллер депозитов
	poller := depositpoller.NewPoller(
		store.bookings,
		paymentProvider,
		confirmDepositUseCase,
		metricsCollector,
		depositpoller.Config{
			Schedule:     cfg.Poller.Schedule,
			BatchSize:    cfg.Poller.BatchSize,
			Workers:      cfg.Poller.Workers,
			MaxAttempts:  cfg.Poller.MaxAttempts,
			BaseBackoff:  config.Milliseconds(cfg.Poller.BaseBackoffMs),
			MaxBackoff:   config.Milliseconds(cfg.Poller.MaxBackoffMs),
			SweepTimeout: config.Seconds(cfg.Poller.SweepTimeout),
			RateLimit:    cfg.Poller.ProviderRateLimit,
			Burst:        cfg.Poller.ProviderRateBurst,
		},
		log,
	)
	if cfg.Poller.Enabled {
		if err := poller.Start(); err != nil {
			log.Fatal("Failed to start deposit poller: %v", err)
		}
	} else {
		log.Info("Deposit poller sweeps disabled, polling is available on demand")
	}

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	checkOutBooking := checkOutBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	confirmDeposit := confirmDepositHandler.NewHandler(confirmDepositUseCase, log)
	pollDeposit := pollDepositHandler.NewHandler(bookingSvc, poller, log)
	stripeWebhook := stripeWebhookHandler.NewHandler(paymentProvider, confirmDepositUseCase, log)
	getVehicleAvailability := getVehicleAvailabilityHandler.NewHandler(getVehicleAvailabilityUseCase, log)
	createPromotion := createPromotionHandler.NewHandler(promotionSvc, log)
	getPromotion := getPromotionHandler.NewHandler(promotionSvc, log)
	listPromotions := listPromotionsHandler.NewHandler(promotionSvc, log)
	updatePromotion := updatePromotionHandler.NewHandler(promotionSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Вебхук платежного провайдера, подлинность проверяется подписью
	api.HandleFunc("/payments/stripe/webhook", stripeWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(identityClient, log))

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/check-out", checkOutBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPost)

	// --- Депозит ---
	protected.HandleFunc("/bookings/{bookingId}/deposit", confirmDeposit.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/deposit/poll", pollDeposit.Handle).Methods(http.MethodPost)

	// --- Машины ---
	protected.HandleFunc("/vehicles/{vehicleId}/availability", getVehicleAvailability.Handle).Methods(http.MethodGet)

	// --- Промокоды ---
	protected.HandleFunc("/promotions", createPromotion.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/promotions", listPromotions.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/promotions/{code}", getPromotion.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/promotions/{promotionId:[0-9]+}", updatePromotion.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Seconds(cfg.Server.IdleTimeout),
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		config.Seconds(cfg.Server.ShutdownTimeout),
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Сначала поллер, чтобы он не писал в закрытое хранилище
	poller.Stop()
	log.Info("Deposit poller stopped")

	if err := bookingNotifier.Close(); err != nil {
		log.Error("Failed to close notifier: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
