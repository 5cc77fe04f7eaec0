package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/handlers"
	analytics_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/analytics"
	approval_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/approval"
	auth_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/auth"
	curriculum_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/curriculum"
	message_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/message"
	notification_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/notification"
	user_handlers "github.com/sahilchouksey/curriculum-tracker/handlers/user"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/services/storage"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"github.com/sahilchouksey/curriculum-tracker/utils/cache"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"go.uber.org/zap"
)

// Deps is everything the routes need, built once at process start
type Deps struct {
	Store      database.Storage
	JWTManager *auth.JWTManager
	// Cache is optional; without it login lockouts and dashboard caching are off
	Cache *cache.RedisCache
	// Uploader is optional; without it avatar uploads answer 503
	Uploader storage.Uploader
	Log      *zap.Logger

	AllowedOrigins    string
	AccessLog         bool
	RateLimitRequests int
	DashboardCacheTTL time.Duration
	Version           string
}

// Services are the domain services built by SetupRoutes, exposed for jobs
// that run next to the HTTP server
type Services struct {
	Users         *services.UserService
	Approvals     *services.ApprovalService
	Blacklist     *auth.BlacklistService
	Auth          *services.AuthService
	Curriculum    *services.CurriculumService
	Messages      *services.MessageService
	Notifications *services.NotificationService
	Analytics     *services.AnalyticsService
	Export        *services.ExportService
}

// NewServices wires the domain services over one store
func NewServices(deps Deps) *Services {
	var dashboardCache services.JSONCache
	if deps.Cache != nil {
		dashboardCache = deps.Cache
	}

	analytics := services.NewAnalyticsService(deps.Store, dashboardCache, deps.DashboardCacheTTL, deps.Log)
	users := services.NewUserService(deps.Store, deps.Log)
	users.InvalidatesDashboard(analytics)
	approvals := services.NewApprovalService(deps.Store, deps.Log)
	approvals.InvalidatesDashboard(analytics)
	blacklist := auth.NewBlacklistService(deps.Store)
	return &Services{
		Users:         users,
		Approvals:     approvals,
		Blacklist:     blacklist,
		Auth:          services.NewAuthService(users, deps.JWTManager, blacklist, deps.Log),
		Curriculum:    services.NewCurriculumService(deps.Store, deps.Log),
		Messages:      services.NewMessageService(deps.Store, deps.Log),
		Notifications: services.NewNotificationService(deps.Store, deps.Log),
		Analytics:     analytics,
		Export:        services.NewExportService(deps.Store, deps.Log),
	}
}

func SetupRoutes(app *fiber.App, deps Deps) *Services {
	svc := NewServices(deps)

	bruteForceProtection := middleware.NewBruteForceProtection(deps.Cache, deps.Log)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager, svc.Auth)
	required := authMiddleware.Required()
	can := middleware.RequireCapability

	authHandler := auth_handlers.NewAuthHandler(svc.Auth, bruteForceProtection)
	userHandler := user_handlers.NewUserHandler(svc.Users, svc.Export, deps.Uploader)
	curriculumHandler := curriculum_handlers.NewCurriculumHandler(svc.Curriculum)
	approvalHandler := approval_handlers.NewApprovalHandler(svc.Approvals)
	messageHandler := message_handlers.NewMessageHandler(svc.Messages)
	notificationHandler := notification_handlers.NewNotificationHandler(svc.Notifications)
	analyticsHandler := analytics_handlers.NewAnalyticsHandler(svc.Analytics)
	var pinger handlers.Pinger
	if deps.Cache != nil {
		pinger = deps.Cache
	}
	healthHandler := handlers.NewHealthHandler(deps.Store, pinger, deps.Version)

	// Apply security middleware
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.AllowedOrigins,
		RateLimitRequests: deps.RateLimitRequests,
		RateLimitWindow:   1 * time.Minute,
		AccessLog:         deps.AccessLog,
		Log:               deps.Log,
	})

	// Operational endpoints (public)
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Get("/metrics", handlers.Metrics())

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	authGroup.Post("/create-admin", authHandler.CreateAdmin)
	authGroup.Get("/me", required, authHandler.Me)
	authGroup.Post("/logout", required, authHandler.Logout)

	// User directory (static paths before /:id)
	users := api.Group("/users", required)
	users.Get("/", can(model.ActionViewAnyUser), userHandler.ListUsers)
	users.Get("/mentees", can(model.ActionViewAnyUser), userHandler.ListByRole(model.RoleMentee))
	users.Get("/mentors", can(model.ActionViewAnyUser), userHandler.ListByRole(model.RoleMentor))
	users.Get("/parents", can(model.ActionViewAnyUser), userHandler.ListByRole(model.RoleParent))
	users.Post("/mentees", can(model.ActionManageUsers), userHandler.CreateWithRole(model.RoleMentee))
	users.Post("/mentors", can(model.ActionManageUsers), userHandler.CreateWithRole(model.RoleMentor))
	users.Post("/parents", can(model.ActionManageUsers), userHandler.CreateWithRole(model.RoleParent))
	users.Get("/mentor/mentees", can(model.ActionListOwnMentees), userHandler.MyMentees)
	users.Get("/parent/children", can(model.ActionListOwnChildren), userHandler.MyChildren)
	users.Get("/export/progress", can(model.ActionExportProgress), userHandler.ExportProgress)
	users.Post("/assign/:mentee_id/:mentor_id", can(model.ActionManageUsers), userHandler.AssignMentor)
	users.Get("/:id", userHandler.GetUser)       // self or admin
	users.Put("/:id", userHandler.UpdateUser)    // self or admin
	users.Post("/:id/avatar", userHandler.UploadAvatar)
	users.Delete("/:id", can(model.ActionManageUsers), userHandler.DeleteUser)

	// Curriculum catalog: any signed-in user reads, admins write
	curriculum := api.Group("/curriculum", required)
	curriculum.Get("/weeks", curriculumHandler.ListWeeks)
	curriculum.Get("/weeks/:week", curriculumHandler.GetWeek)
	curriculum.Get("/bloc/:bloc", curriculumHandler.ListBloc)
	curriculum.Post("/weeks", can(model.ActionManageCurriculum), curriculumHandler.CreateWeek)
	curriculum.Put("/weeks/:week", can(model.ActionManageCurriculum), curriculumHandler.UpdateWeek)
	curriculum.Delete("/weeks/:week", can(model.ActionManageCurriculum), curriculumHandler.DeleteWeek)

	// Week approvals
	approvals := api.Group("/approvals", required)
	approvals.Post("/", can(model.ActionSubmitWeek), approvalHandler.Submit)
	approvals.Get("/", approvalHandler.List)
	approvals.Get("/pending", can(model.ActionReviewWeek), approvalHandler.Pending)
	approvals.Get("/completed", can(model.ActionReviewWeek), approvalHandler.Completed)
	approvals.Get("/:id", approvalHandler.Get)
	approvals.Put("/:id/approve", can(model.ActionReviewWeek), approvalHandler.Approve)
	approvals.Put("/:id/reject", can(model.ActionReviewWeek), approvalHandler.Reject)

	// Messages
	messages := api.Group("/messages", required)
	messages.Post("/", messageHandler.Send)
	messages.Get("/", messageHandler.List)
	messages.Get("/sent", messageHandler.Sent)
	messages.Get("/received", messageHandler.Received)
	messages.Get("/:id", messageHandler.Get)
	messages.Post("/:id/respond", messageHandler.Respond)

	// Notifications
	notifications := api.Group("/notifications", required)
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/pending", notificationHandler.GetPending)

	// Analytics
	analytics := api.Group("/analytics", required)
	analytics.Get("/dashboard", can(model.ActionViewDashboard), analyticsHandler.GetDashboard)
	analytics.Get("/mentor/stats", can(model.ActionViewMentorStats), analyticsHandler.GetMentorStats)

	return svc
}
