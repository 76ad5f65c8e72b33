package handlers

import (
	"net/http"

	"travelatlas/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/destinations
func GetDestinations(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		RespondDomainError(c, "destination", err)
		return
	}
	list, err := services.DestinationService{}.List(c.Request.Context(), c.Query("search"), c.Query("country"), limit)
	if err != nil {
		RespondDomainError(c, "destination", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
