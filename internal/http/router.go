package api

import (
	stdhttp "net/http"

	intconfig "cargobooking/internal/config"
	h "cargobooking/internal/http/handlers"
	"cargobooking/internal/http/middleware"
	"cargobooking/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogWarn("", "http", "init", "failed to set trusted proxies: "+err.Error())
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route tidak ditemukan",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	auth := middleware.RequireActor([]byte(env.JWTSecret))
	elevated := middleware.RequireRoles(env.ElevatedRoles...)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		// Schema capabilities
		schema := api.Group("/schema", auth)
		schema.GET("/capabilities", h.SchemaCapabilities)
		schema.POST("/refresh", elevated, h.RefreshSchemaCapabilities)

		// Bookings
		bookings := api.Group("/bookings", auth)
		bookings.GET("/next-reference", h.NextBookingReference)
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:ref", h.GetBooking)
		bookings.GET("/:ref/containers", h.GetBookingContainers)
		bookings.PUT("/:ref", h.UpdateBooking)
		bookings.PATCH("/:ref/status", h.UpdateBookingStatus)
		bookings.DELETE("/:ref", h.DeleteBooking)
	}

	h.SetRouter(r)
	return r
}
