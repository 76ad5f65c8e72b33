package api

import (
	stdhttp "net/http"

	intconfig "travelatlas/internal/config"
	h "travelatlas/internal/http/handlers"
	"travelatlas/internal/http/middleware"
	"travelatlas/internal/logging"
	"travelatlas/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	if err := validation.Register(); err != nil {
		logging.Warn().Err(err).Msg("custom validators not registered")
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins()))

	if err := r.SetTrustedProxies(nil); err != nil {
		logging.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"code":       "not_found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	auth := middleware.NewAuthenticator(env.SupabaseJWTSecret)
	requireUser := auth.RequireUser()
	aiLimit := middleware.NewRateLimiter(env.AIRatePerMinute).Middleware()

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		api.GET("/destinations", h.GetDestinations)

		aiGroup := api.Group("/ai", aiLimit)
		aiGroup.POST("/generate-itinerary", requireUser, h.GenerateItinerary)
		aiGroup.POST("/chat", auth.OptionalUser(), h.Chat)

		itineraries := api.Group("/itineraries", requireUser)
		itineraries.GET("", h.GetItineraries)
		itineraries.POST("", h.CreateItinerary)
		itineraries.GET("/:id", h.GetItineraryByID)
		itineraries.GET("/:id/status", h.GetItineraryStatus)
		itineraries.PUT("/:id", h.UpdateItinerary)
		itineraries.DELETE("/:id", h.DeleteItinerary)
		itineraries.POST("/:id/atlas-file", h.CreateAtlasFileFromItinerary)

		activities := itineraries.Group("/:id/activities")
		activities.GET("", h.GetActivities)
		activities.POST("", h.CreateActivity)
		activities.PUT("/:activityId", h.UpdateActivity)
		activities.DELETE("/:activityId", h.DeleteActivity)
		activities.POST("/:activityId/move", h.MoveActivity)

		atlasFiles := api.Group("/atlas-files")
		atlasFiles.GET("", requireUser, h.GetAtlasFiles)
		atlasFiles.POST("", requireUser, h.CreateAtlasFile)
		// published files are readable without a token
		atlasFiles.GET("/:id", auth.OptionalUser(), h.GetAtlasFileByID)
		atlasFiles.GET("/:id/html", auth.OptionalUser(), h.GetAtlasFileHTML)
		atlasFiles.GET("/:id/pdf", auth.OptionalUser(), h.GetAtlasFilePDF)
		atlasFiles.PUT("/:id", requireUser, h.UpdateAtlasFile)
		atlasFiles.DELETE("/:id", requireUser, h.DeleteAtlasFile)
		atlasFiles.POST("/:id/publish", requireUser, h.PublishAtlasFile)
		atlasFiles.POST("/:id/unpublish", requireUser, h.UnpublishAtlasFile)

		guides := api.Group("/guides")
		guides.GET("", h.GetGuides)
		guides.GET("/:slug", h.GetGuideBySlug)

		favorites := api.Group("/favorite-places", requireUser)
		favorites.GET("", h.GetFavoritePlaces)
		favorites.POST("", h.CreateFavoritePlace)
		favorites.PUT("/:id", h.UpdateFavoritePlace)
		favorites.DELETE("/:id", h.DeleteFavoritePlace)
	}

	h.SetRouter(r)
	return r
}
