package handlers

import (
	"net/http"

	"travelatlas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/itineraries
func GetItineraries(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	list, page, err := itineraryService(requestID(c)).List(c.Request.Context(), userID(c), page)
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Itinerary]{Items: list, Pagination: page})
}

// POST /api/itineraries
func CreateItinerary(c *gin.Context) {
	var in models.ItineraryInput
	if !BindJSONOrError(c, &in) {
		return
	}
	it, err := itineraryService(requestID(c)).Create(c.Request.Context(), userID(c), in)
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// GET /api/itineraries/:id
func GetItineraryByID(c *gin.Context) {
	detail, err := itineraryService(requestID(c)).Detail(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /api/itineraries/:id/status
func GetItineraryStatus(c *gin.Context) {
	st, err := itineraryService(requestID(c)).Status(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PUT /api/itineraries/:id
func UpdateItinerary(c *gin.Context) {
	var in models.ItineraryInput
	if !BindJSONOrError(c, &in) {
		return
	}
	it, err := itineraryService(requestID(c)).Update(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/itineraries/:id
func DeleteItinerary(c *gin.Context) {
	if err := itineraryService(requestID(c)).Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		RespondDomainError(c, "itinerary", err)
		return
	}
	c.Status(http.StatusNoContent)
}
