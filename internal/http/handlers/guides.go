package handlers

import (
	"net/http"

	"travelatlas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/guides
func GetGuides(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		RespondDomainError(c, "guide", err)
		return
	}
	q := models.GuideQuery{
		Destination: c.Query("destination"),
		Tag:         c.Query("tag"),
		Search:      c.Query("q"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	list, page, err := atlasService(requestID(c)).Guides(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, "guide", err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.AtlasFile]{Items: list, Pagination: page})
}

// GET /api/guides/:slug
func GetGuideBySlug(c *gin.Context) {
	f, err := atlasService(requestID(c)).Guide(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondDomainError(c, "guide", err)
		return
	}
	c.JSON(http.StatusOK, f)
}
