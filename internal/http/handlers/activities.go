package handlers

import (
	"net/http"

	"travelatlas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/itineraries/:id/activities
func GetActivities(c *gin.Context) {
	list, err := activityService(requestID(c)).List(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "activity", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/itineraries/:id/activities
func CreateActivity(c *gin.Context) {
	var in models.ActivityInput
	if !BindJSONOrError(c, &in) {
		return
	}
	a, err := activityService(requestID(c)).Create(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, "activity", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// PUT /api/itineraries/:id/activities/:activityId
func UpdateActivity(c *gin.Context) {
	var in models.ActivityInput
	if !BindJSONOrError(c, &in) {
		return
	}
	a, err := activityService(requestID(c)).Update(c.Request.Context(), userID(c), c.Param("id"), c.Param("activityId"), in)
	if err != nil {
		RespondDomainError(c, "activity", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /api/itineraries/:id/activities/:activityId
func DeleteActivity(c *gin.Context) {
	if err := activityService(requestID(c)).Delete(c.Request.Context(), userID(c), c.Param("id"), c.Param("activityId")); err != nil {
		RespondDomainError(c, "activity", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/itineraries/:id/activities/:activityId/move
func MoveActivity(c *gin.Context) {
	var in models.MoveInput
	if !BindJSONOrError(c, &in) {
		return
	}
	list, err := activityService(requestID(c)).Move(c.Request.Context(), userID(c), c.Param("id"), c.Param("activityId"), in)
	if err != nil {
		RespondDomainError(c, "activity", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
