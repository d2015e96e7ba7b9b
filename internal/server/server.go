// Package server wires repositories, services and handlers into the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"hotelbooking/internal/events"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/modules/admin"
	"hotelbooking/internal/modules/admission"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/modules/notification"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/modules/reservation"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const APIPrefix = "/api/v1"

type Options struct {
	AdmissionTimeout time.Duration
	PaymentTimeout   time.Duration
	MaxStayNights    int
	WebhookSecret    string
	CORSOrigins      []string
	// Now overrides the reservation clock; tests only.
	Now func() time.Time
}

type Deps struct {
	DB  *gorm.DB
	JWT *jwt.Service
	Log logrus.FieldLogger
	// Cache backs the room-type list; nil disables caching.
	Cache catalog.Cache
	// Broker receives every reservation event behind a circuit breaker;
	// nil disables broker publishing.
	Broker events.Publisher
	Hub    *events.Hub
}

type Server struct {
	Router       *gin.Engine
	Reservations *reservation.Service
	Hub          *events.Hub
}

func New(d Deps, opts Options) (*Server, error) {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	hub := d.Hub
	if hub == nil {
		hub = events.NewHub(log)
	}
	cache := d.Cache
	if cache == nil {
		cache = catalog.NoopCache{}
	}

	enforcer, err := middleware.NewEnforcer(APIPrefix)
	if err != nil {
		return nil, err
	}

	ledger := inventory.NewLedger(log)
	coordinator := admission.NewCoordinator(d.DB, ledger, opts.AdmissionTimeout, log)

	notificationService := notification.NewService(repository.NewNotificationRepository(d.DB))
	sinks := events.Multi{hub, notificationService}
	if d.Broker != nil {
		sinks = append(sinks, events.NewBreaker("rabbitmq", d.Broker, log))
	}

	reservationService := reservation.NewService(d.DB, ledger, coordinator, sinks, log, reservation.Options{
		PaymentTimeout: opts.PaymentTimeout,
		MaxStayNights:  opts.MaxStayNights,
		Now:            opts.Now,
	})
	catalogService := catalog.NewService(d.DB, ledger, cache, log)
	paymentService := payment.NewService(repository.NewPaymentRepository(d.DB), reservationService, opts.WebhookSecret, log)
	authService := auth.NewService(repository.NewUserRepository(d.DB), repository.NewReservationRepository(d.DB), d.JWT)
	adminService := admin.NewService(d.DB, ledger, coordinator, sinks, log)

	authHandler := auth.NewHandler(authService)
	catalogHandler := catalog.NewHandler(catalogService)
	reservationHandler := reservation.NewHandler(reservationService)
	paymentHandler := payment.NewHandler(paymentService)
	notificationHandler := notification.NewHandler(notificationService)
	adminHandler := admin.NewHandler(adminService, d.JWT, hub, log)

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.GET("/health", health(d.DB))

	v1 := r.Group(APIPrefix)
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)
		adminHandler.RegisterFeedRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.JWT), middleware.Authorize(enforcer, log))
		{
			authHandler.RegisterProtectedRoutes(protected)
			reservationHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.StaffOnly())
		{
			catalogHandler.RegisterAdminRoutes(adminGroup)
			reservationHandler.RegisterAdminRoutes(adminGroup)
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	return &Server{Router: r, Reservations: reservationService, Hub: hub}, nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
