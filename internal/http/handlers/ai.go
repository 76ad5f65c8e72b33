package handlers

import (
	"net/http"

	"travelatlas/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/ai/generate-itinerary
// Responds 202 with the itinerary; clients poll /api/itineraries/:id/status.
func GenerateItinerary(c *gin.Context) {
	var in services.GenerateInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := services.GenerationService{
		Dispatcher:  current().Dispatcher,
		Itineraries: itineraryService(requestID(c)),
		RequestID:   requestID(c),
	}
	it, err := svc.Start(c.Request.Context(), userID(c), in)
	if err != nil {
		RespondDomainError(c, "generation", err)
		return
	}
	c.JSON(http.StatusAccepted, it)
}

// POST /api/ai/chat
func Chat(c *gin.Context) {
	var in services.ChatInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := services.ChatService{
		AI:          current().AI,
		Itineraries: itineraryService(requestID(c)),
		RequestID:   requestID(c),
	}
	reply, err := svc.Chat(c.Request.Context(), userID(c), in)
	if err != nil {
		RespondDomainError(c, "ai", err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
