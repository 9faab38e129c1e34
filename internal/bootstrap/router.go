package bootstrap

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/unitledger/inventory-backend/internal/api/http"
	apimw "github.com/unitledger/inventory-backend/internal/api/http/middleware"
	authdomain "github.com/unitledger/inventory-backend/internal/auth/domain"
	authhttp "github.com/unitledger/inventory-backend/internal/auth/http"
	authmw "github.com/unitledger/inventory-backend/internal/auth/middleware"
	authrepo "github.com/unitledger/inventory-backend/internal/auth/repository"
	authservice "github.com/unitledger/inventory-backend/internal/auth/service"
	"github.com/unitledger/inventory-backend/internal/events"
	invhttp "github.com/unitledger/inventory-backend/internal/inventory/http"
	invrepo "github.com/unitledger/inventory-backend/internal/inventory/repository"
	invservice "github.com/unitledger/inventory-backend/internal/inventory/service"
	notifhttp "github.com/unitledger/inventory-backend/internal/notifications/http"
	notifrepo "github.com/unitledger/inventory-backend/internal/notifications/repository"
	notifservice "github.com/unitledger/inventory-backend/internal/notifications/service"
	uploadhttp "github.com/unitledger/inventory-backend/internal/uploads/http"
	uploadrepo "github.com/unitledger/inventory-backend/internal/uploads/repository"
	uploadservice "github.com/unitledger/inventory-backend/internal/uploads/service"
	"github.com/unitledger/inventory-backend/internal/uploads/storage"
)

// multipartOverhead leaves room for form boundaries and the socketId field
// on top of the file size limit.
const multipartOverhead = 1 << 20

type RouterDeps struct {
	ServiceName   string
	Version       string
	ClientURL     string
	AllowAnyCORS  bool
	Redis         *redis.Client
	Store         httpapi.Pinger
	Files         *storage.FileManager
	JWTSecret     string
	TokenTTL      time.Duration
	UploadOptions uploadservice.Options
	UploadsPerMin int
	// UploadLimiter is shared with the pruning job; built from UploadsPerMin
	// when nil.
	UploadLimiter *apimw.UserRateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware())
	r.Use(apimw.CORS(dep.ClientURL, dep.AllowAnyCORS))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")
	healthHandler.RegisterRoutes(api)

	// repositories
	userRepo := authrepo.NewUserRepository(dep.Redis)
	inventoryRepo := invrepo.NewInventoryRepository(dep.Redis)
	uploadRepo := uploadrepo.NewUploadLogRepository(dep.Redis)
	notificationRepo := notifrepo.NewNotificationRepository(dep.Redis)

	// services
	publisher := events.NewPublisher(dep.Redis)
	authSvc := authservice.NewAuthService(userRepo, dep.JWTSecret, dep.TokenTTL)
	notificationSvc := notifservice.NewNotificationService(notificationRepo, authSvc, publisher)
	inventorySvc := invservice.NewInventoryService(inventoryRepo, uploadRepo, notificationRepo)
	uploadSvc := uploadservice.NewUploadService(uploadRepo, inventorySvc, notificationSvc, publisher, dep.Files, dep.UploadOptions)

	requireAuth := authmw.Authenticate(authSvc)

	authhttp.New(authSvc).Register(api.Group("/auth"), requireAuth)

	events.NewStreamHandler(dep.Redis).Register(api.Group("", requireAuth))

	inventoryHandler := invhttp.New(inventorySvc)

	developer := api.Group("/developer", requireAuth, authmw.AuthorizeRole(authdomain.RoleDeveloper, authdomain.RoleAdmin))
	inventoryHandler.RegisterDeveloper(developer)

	agent := api.Group("/agent", requireAuth, authmw.AuthorizeRole(authdomain.RoleAgent, authdomain.RoleAdmin))
	inventoryHandler.RegisterAgent(agent)
	notifhttp.New(notificationSvc).Register(agent)

	upload := api.Group("/upload", requireAuth, apimw.MaxBodySize(dep.Files.MaxUploadBytes()+multipartOverhead))
	limiter := dep.UploadLimiter
	if limiter == nil {
		limiter = apimw.NewUserRateLimiter(dep.UploadsPerMin)
	}
	uploadhttp.New(uploadSvc, dep.Files).Register(upload, limiter.Middleware())

	return r
}
