package app

import (
	"dieselhub/internal/antispam"
	"dieselhub/internal/auth"
	"dieselhub/internal/cache"
	"dieselhub/internal/config"
	"dieselhub/internal/metrics"
	"dieselhub/internal/novaposhta"
	"dieselhub/internal/repo"
	"dieselhub/internal/services"
	"dieselhub/internal/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	DB      *gorm.DB
	Config  *config.Config
	Metrics *metrics.Metrics

	AuthService *auth.Service

	ProductRepo   *repo.ProductRepository
	OrderRepo     *repo.OrderRepository
	InventoryRepo *repo.InventoryRepository

	CatalogService   *services.CatalogService
	ImportService    *services.ImportService
	ExportService    *services.ExportService
	ProductService   *services.ProductService
	OrderService     *services.OrderService
	InventoryService *services.InventoryService
	StorageService   *services.StorageService
	NovaPoshta       *novaposhta.Service

	// MemoryAttempts is set when attempts are kept in process and need sweeping
	MemoryAttempts *antispam.MemoryAttemptStore
	Gate           *antispam.Gate
}

// NewServices creates a new services container. redisClient may be nil.
func NewServices(db *gorm.DB, cfg *config.Config, redisClient *cache.RedisClient, reg prometheus.Registerer) *Services {
	m := metrics.New(reg)

	// Initialize repositories
	productRepo := repo.NewProductRepository(db)
	orderRepo := repo.NewOrderRepository(db)
	inventoryRepo := repo.NewInventoryRepository(db)

	// Abuse gate: Redis keeps the window shared between instances
	var attempts antispam.AttemptStore
	var memoryAttempts *antispam.MemoryAttemptStore
	if redisClient != nil {
		attempts = antispam.NewRedisAttemptStore(redisClient.GetClient(), cfg.OrderRateLimitWindow)
		log.Info().Msg("Order attempts stored in Redis")
	} else {
		memoryAttempts = antispam.NewMemoryAttemptStore()
		attempts = memoryAttempts
	}
	gate := antispam.NewGate(attempts, cfg.OrderRateLimitCount, cfg.OrderRateLimitWindow, m)
	verifier := antispam.NewTurnstileVerifier(cfg.TurnstileSecretKey, cfg.TurnstileVerifyURL, m)
	pipeline := antispam.NewOrderPipeline(gate, verifier, cfg.TurnstileSiteKey)

	var notifiers services.MultiNotifier
	if cfg.TelegramEnabled() {
		notifiers = append(notifiers, telegram.NewOrderNotifier(telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken), cfg.TelegramChatID))
	} else {
		log.Warn().Msg("Telegram is not configured, orders will not be forwarded there")
	}
	if cfg.EmailEnabled() {
		emailNotifier, err := services.NewEmailNotifier(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Order emails disabled")
		} else {
			notifiers = append(notifiers, emailNotifier)
		}
	}
	var notifier services.OrderNotifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	// Image storage is optional
	var objects services.ObjectStore
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Image storage disabled")
		storageService = nil
	} else {
		objects = storageService
	}

	var addressCache cache.Store = cache.NewMemoryStore()
	if redisClient != nil {
		addressCache = cache.NewRedisStore(redisClient.GetClient(), "dieselhub:")
	}
	npService := novaposhta.NewService(
		novaposhta.NewClient(cfg.NovaPoshtaAPIURL, cfg.NovaPoshtaKey),
		addressCache,
		cfg.NovaPoshtaTTL,
		m,
	)

	return &Services{
		DB:      db,
		Config:  cfg,
		Metrics: m,

		AuthService: auth.NewService(cfg),

		ProductRepo:   productRepo,
		OrderRepo:     orderRepo,
		InventoryRepo: inventoryRepo,

		CatalogService:   services.NewCatalogService(productRepo),
		ImportService:    services.NewImportService(productRepo, cfg.ImportAmbiguousMatch, m),
		ExportService:    services.NewExportService(productRepo),
		ProductService:   services.NewProductService(productRepo, objects),
		OrderService:     services.NewOrderService(pipeline, orderRepo, notifier, m),
		InventoryService: services.NewInventoryService(productRepo, inventoryRepo),
		StorageService:   storageService,
		NovaPoshta:       npService,

		MemoryAttempts: memoryAttempts,
		Gate:           gate,
	}
}
