package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/ticketi/ticketi-api/docs"
	v1 "github.com/ticketi/ticketi-api/internal/api/handler/v1"
	"github.com/ticketi/ticketi-api/internal/api/middleware"
	"github.com/ticketi/ticketi-api/internal/cache"
	"github.com/ticketi/ticketi-api/internal/config"
	"github.com/ticketi/ticketi-api/internal/repository"
	"github.com/ticketi/ticketi-api/internal/repository/dao"
	"github.com/ticketi/ticketi-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

type handlers struct {
	event  *v1.EventHandler
	ticket *v1.TicketHandler
}

// NewServer wires the application. A nil redisClient disables the
// availability cache.
func NewServer(conf *config.AppConfig, db *gorm.DB, redisClient redis.Cmdable) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(db, redisClient))

	return s
}

func (s *Server) initHandlers(db *gorm.DB, redisClient redis.Cmdable) handlers {
	var availability service.AvailabilityCache = cache.Noop{}
	if redisClient != nil {
		availability = cache.NewAvailabilityCache(redisClient, s.Config.Redis.AvailabilityTTL)
	}

	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db), s.Config.Ticketing.InventoryBatchSize)
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))

	ledger := service.NewLedger(ticketRepo)
	ticketSvc := service.NewTicketService(ticketRepo, ledger, availability, s.Config.Ticketing)
	eventSvc := service.NewEventService(eventRepo, availability, s.Config.Ticketing)

	return handlers{
		event:  v1.NewEventHandler(eventSvc),
		ticket: v1.NewTicketHandler(ticketSvc, ledger),
	}
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.AccessLog())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	authenticated := middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT()
	limiter := middleware.NewRateLimiter(s.Config.Ticketing.PurchaseRate, s.Config.Ticketing.PurchaseBurst)

	events := s.Router.Group(basePath, authenticated)
	{
		events.POST("/events", h.event.HandleCreateEvent)
		events.GET("/events/:eventID", h.event.HandleGetEvent)
		events.PATCH("/events/:eventID", h.event.HandleUpdateEvent)
		events.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		events.GET("/events/:eventID/availability", h.ticket.HandleAvailability)
		events.GET("/events/:eventID/resale", h.ticket.HandleResaleListings)
		events.POST("/events/:eventID/purchase", limiter.Limit(), h.ticket.HandlePurchase)
	}

	tickets := s.Router.Group(basePath, authenticated)
	{
		tickets.GET("/tickets/:ticketID", h.ticket.HandleGetTicket)
		tickets.GET("/tickets/:ticketID/transactions", h.ticket.HandleTicketHistory)
		tickets.POST("/tickets/:ticketID/resale", h.ticket.HandleListForResale)
		tickets.DELETE("/tickets/:ticketID/resale", h.ticket.HandleCancelResale)
		tickets.POST("/tickets/:ticketID/resale/purchase", limiter.Limit(), h.ticket.HandlePurchaseResale)
	}

	me := s.Router.Group(basePath+"/users/me", authenticated)
	{
		me.GET("/events", h.event.HandleListMyEvents)
		me.GET("/tickets", h.ticket.HandleMyTickets)
		me.GET("/transactions", h.ticket.HandleMyTransactions)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Ticketi API"
	docs.SwaggerInfo.Description = "Event ticketing with primary sales and peer-to-peer resale."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
