package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminCancelBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/admin_cancel_booking"
	assignProviderHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/assign_provider"
	cancelBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/create_booking"
	forceAssignHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/force_assign"
	forceCancelHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/force_cancel"
	getBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_booking"
	getBookingEventsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_booking_events"
	getProviderBookingsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_provider_bookings"
	listProvidersHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/list_providers"
	markFailedHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/mark_failed"
	providerAcceptHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/provider_accept"
	providerRejectHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/provider_reject"
	retryBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/retry_booking"
	"github.com/m04kA/SMC-DispatchService/internal/api/middleware"
	"github.com/m04kA/SMC-DispatchService/internal/config"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	customerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/customer"
	providerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/provider"
	bookingsService "github.com/m04kA/SMC-DispatchService/internal/service/bookings"
	providersService "github.com/m04kA/SMC-DispatchService/internal/service/providers"
	"github.com/m04kA/SMC-DispatchService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DispatchService/pkg/logger"
	"github.com/m04kA/SMC-DispatchService/pkg/metrics"
	"github.com/m04kA/SMC-DispatchService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-DispatchService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
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

	log.Info("Starting SMC-DispatchService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		customerRepository *customerRepo.Repository
		providerRepository *providerRepo.Repository
		txMgr              bookingsService.TransactionManager
	)

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		customerRepository = customerRepo.NewRepository(wrappedDB)
		providerRepository = providerRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		customerRepository = customerRepo.NewRepository(db)
		providerRepository = providerRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		customerRepository,
		providerRepository,
		txMgr,
		log,
	)
	providerSvc := providersService.NewService(
		providerRepository,
		bookingRepository,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getBookingEvents := getBookingEventsHandler.NewHandler(bookingSvc, log)
	assignProvider := assignProviderHandler.NewHandler(bookingSvc, log)
	providerAccept := providerAcceptHandler.NewHandler(bookingSvc, log)
	providerReject := providerRejectHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	retryBooking := retryBookingHandler.NewHandler(bookingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, log)
	adminCancelBooking := adminCancelBookingHandler.NewHandler(bookingSvc, log)
	forceAssign := forceAssignHandler.NewHandler(bookingSvc, log)
	forceCancel := forceCancelHandler.NewHandler(bookingSvc, log)
	markFailed := markFailedHandler.NewHandler(bookingSvc, log)
	listProviders := listProvidersHandler.NewHandler(providerSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Бронирования ---
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/events", getBookingEvents.Handle).Methods(http.MethodGet)

	// --- Диспетчеризация ---
	api.HandleFunc("/bookings/{bookingId}/assign", assignProvider.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/accept", providerAccept.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/reject", providerReject.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/retry", retryBooking.Handle).Methods(http.MethodPost)

	// --- Провайдеры ---
	api.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)

	// --- Администрирование ---
	api.HandleFunc("/admin/bookings/{bookingId}/cancel", adminCancelBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/admin/bookings/{bookingId}/force-assign", forceAssign.Handle).Methods(http.MethodPost)
	api.HandleFunc("/admin/bookings/{bookingId}/force-cancel", forceCancel.Handle).Methods(http.MethodPost)
	api.HandleFunc("/admin/bookings/{bookingId}/mark-failed", markFailed.Handle).Methods(http.MethodPost)
	api.HandleFunc("/admin/providers", listProviders.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
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

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
