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

	changeStatusHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/change_appointment_status"
	createAppointmentHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/create_appointment"
	createAdjustmentHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/create_bonus_adjustment"
	deleteAppointmentHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/delete_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/get_available_slots"
	getBonusAccountHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/get_bonus_account"
	getScheduleHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/get_schedule"
	invalidateCacheHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/invalidate_service_cache"
	recalculateBalanceHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/recalculate_bonus_balance"
	upsertScheduleHandler "github.com/m04kA/SMC-WellnessBooking/internal/api/handlers/upsert_schedule"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/config"
	catalogCache "github.com/m04kA/SMC-WellnessBooking/internal/infra/cache/catalog"
	appointmentRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/appointment"
	bonusRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/bonus"
	scheduleRepo "github.com/m04kA/SMC-WellnessBooking/internal/infra/storage/schedule"
	catalogServiceClient "github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
	promoServiceClient "github.com/m04kA/SMC-WellnessBooking/internal/integrations/promoservice"
	"github.com/m04kA/SMC-WellnessBooking/internal/jobs/completion"
	"github.com/m04kA/SMC-WellnessBooking/internal/notification"
	appointmentsService "github.com/m04kA/SMC-WellnessBooking/internal/service/appointments"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	scheduleService "github.com/m04kA/SMC-WellnessBooking/internal/service/schedule"
	createBookingUC "github.com/m04kA/SMC-WellnessBooking/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-WellnessBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-WellnessBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/metrics"
	"github.com/m04kA/SMC-WellnessBooking/pkg/txmanager"
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

	log.Info("Starting SMC-WellnessBooking...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var recorder metrics.Recorder = metrics.Noop{}
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		recorder = metricsCollector
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

	// Репозитории и transaction manager работают через общий executor (с метриками или без)
	var executor dbmetrics.DBExecutor = db
	if cfg.Metrics.Enabled {
		executor = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	}

	scheduleRepository := scheduleRepo.NewRepository(executor)
	appointmentRepository := appointmentRepo.NewRepository(executor)
	bonusRepository := bonusRepo.NewRepository(executor)
	txMgr := txmanager.NewTransactionManager(executor)

	// Инициализируем интеграционных клиентов
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		cfg.CatalogService.TimeoutDuration(),
		log,
	)
	promoClient := promoServiceClient.NewClient(
		cfg.PromoService.URL,
		cfg.PromoService.TimeoutDuration(),
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s timeout=%ds, PromoService=%s timeout=%ds)",
		cfg.CatalogService.URL, cfg.CatalogService.Timeout, cfg.PromoService.URL, cfg.PromoService.Timeout)

	// Каталог услуг читается через кеш в Redis (если включен)
	var services interface {
		createBookingUC.CatalogClient
		getAvailableSlotsUC.CatalogClient
	} = catalogClient
	var cachedCatalog *catalogCache.CachedClient

	if cfg.Cache.Enabled {
		redisStore := catalogCache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		defer redisStore.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			// Кеш не обязателен: при недоступности Redis запросы идут напрямую в каталог
			log.Warn("Redis is unavailable, catalog cache will fall back to direct calls: %v", err)
		}
		cancel()

		cachedCatalog = catalogCache.NewCachedClient(catalogClient, redisStore, cfg.Cache.TTL(), log)
		services = cachedCatalog
		log.Info("Catalog cache enabled (addr=%s, ttl=%ds)", cfg.Cache.Addr, cfg.Cache.TTLSeconds)
	}

	// Уведомления о записях
	var publisher notification.Publisher = notification.NewLogPublisher(log)
	if cfg.Notifications.Enabled {
		publisher = notification.NewKafkaPublisher(cfg.Notifications.Brokers, cfg.Notifications.Topic)
		log.Info("Kafka notifications enabled (brokers=%v, topic=%s)", cfg.Notifications.Brokers, cfg.Notifications.Topic)
	}
	dispatcher := notification.NewDispatcher(publisher, cfg.Notifications.QueueSize, recorder, log)

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(scheduleRepository, txMgr, log)
	ledger := bonusService.NewLedger(bonusRepository, txMgr, recorder, log)
	appointmentsSvc := appointmentsService.NewService(
		appointmentRepository,
		ledger,
		txMgr,
		dispatcher,
		recorder,
		log,
	)

	// Инициализируем use cases
	location := cfg.Booking.Location()

	createBookingUseCase := createBookingUC.NewUseCase(
		scheduleRepository,
		appointmentRepository,
		services,
		promoClient,
		ledger,
		txMgr,
		dispatcher,
		recorder,
		createBookingUC.Settings{
			MinNoticeMinutes: cfg.Booking.MinNoticeMinutes,
			AdvanceDays:      cfg.Booking.AdvanceDays,
			ReferralAmount:   cfg.Bonus.ReferralAmount,
			Location:         location,
		},
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		scheduleRepository,
		appointmentRepository,
		services,
		txMgr,
		getAvailableSlotsUC.Settings{
			GranularityMinutes: cfg.Booking.SlotGranularityMinutes,
			MinNoticeMinutes:   cfg.Booking.MinNoticeMinutes,
			AdvanceDays:        cfg.Booking.AdvanceDays,
			Location:           location,
		},
		log,
	)

	// Фоновое завершение прошедших записей
	var completionJob *completion.Job
	if cfg.Sweeper.Enabled {
		completionJob, err = completion.NewJob(appointmentsSvc, cfg.Sweeper.Cron, location, log)
		if err != nil {
			log.Fatal("Failed to create completion job: %v", err)
		}
		completionJob.Start()
		log.Info("Completion job scheduled (cron=%q)", cfg.Sweeper.Cron)
	}

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	upsertSchedule := upsertScheduleHandler.NewHandler(scheduleSvc, log)
	createAppointment := createAppointmentHandler.NewHandler(createBookingUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	changeStatus := changeStatusHandler.NewHandler(appointmentsSvc, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(appointmentsSvc, log)
	getBonusAccount := getBonusAccountHandler.NewHandler(ledger, log)
	createAdjustment := createAdjustmentHandler.NewHandler(ledger, log)
	recalculateBalance := recalculateBalanceHandler.NewHandler(ledger, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступные слоты специалиста для услуги
	api.HandleFunc("/specialists/{specialistId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Расписание специалиста
	api.HandleFunc("/specialists/{specialistId}/schedule",
		getSchedule.Handle).Methods(http.MethodGet)

	// Создание записи: гость без заголовков или клиент с X-User-ID
	api.Handle("/appointments",
		middleware.OptionalAuth(http.HandlerFunc(createAppointment.Handle))).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Расписание (специалист или администратор) ---
	protected.HandleFunc("/specialists/{specialistId}/schedule", upsertSchedule.Handle).Methods(http.MethodPut)

	// --- Записи ---
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/status", changeStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{appointmentId}", deleteAppointment.Handle).Methods(http.MethodDelete)

	// --- Бонусы ---
	protected.HandleFunc("/users/{userId}/bonus", getBonusAccount.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/users/{userId}/bonus/adjustments", createAdjustment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/users/{userId}/bonus/recalculate", recalculateBalance.Handle).Methods(http.MethodPost)

	// --- Кеш каталога (администратор) ---
	if cachedCatalog != nil {
		invalidateCache := invalidateCacheHandler.NewHandler(cachedCatalog, log)
		protected.HandleFunc("/cache/services/{serviceId}", invalidateCache.Handle).Methods(http.MethodDelete)
	}

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

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи до закрытия очереди уведомлений
	if completionJob != nil {
		completionJob.Stop(shutdownCtx)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error("Failed to flush notifications: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
