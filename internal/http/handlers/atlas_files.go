package handlers

import (
	"fmt"
	"net/http"

	"travelatlas/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/atlas-files
func GetAtlasFiles(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	list, page, err := atlasService(requestID(c)).List(c.Request.Context(), userID(c), page)
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.AtlasFile]{Items: list, Pagination: page})
}

// POST /api/atlas-files
func CreateAtlasFile(c *gin.Context) {
	var in models.AtlasFileInput
	if !BindJSONOrError(c, &in) {
		return
	}
	f, err := atlasService(requestID(c)).Create(c.Request.Context(), userID(c), in)
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// POST /api/itineraries/:id/atlas-file
func CreateAtlasFileFromItinerary(c *gin.Context) {
	f, err := atlasService(requestID(c)).CreateFromItinerary(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// GET /api/atlas-files/:id
func GetAtlasFileByID(c *gin.Context) {
	f, err := atlasService(requestID(c)).Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// PUT /api/atlas-files/:id
func UpdateAtlasFile(c *gin.Context) {
	var in models.AtlasFileInput
	if !BindJSONOrError(c, &in) {
		return
	}
	f, err := atlasService(requestID(c)).Update(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// DELETE /api/atlas-files/:id
func DeleteAtlasFile(c *gin.Context) {
	if err := atlasService(requestID(c)).Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setPublished(published bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := atlasService(requestID(c)).SetPublished(c.Request.Context(), userID(c), c.Param("id"), published)
		if err != nil {
			RespondDomainError(c, "atlas", err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// POST /api/atlas-files/:id/publish
var PublishAtlasFile = setPublished(true)

// POST /api/atlas-files/:id/unpublish
var UnpublishAtlasFile = setPublished(false)

// GET /api/atlas-files/:id/html
func GetAtlasFileHTML(c *gin.Context) {
	doc, err := atlasService(requestID(c)).HTML(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

// GET /api/atlas-files/:id/pdf
func GetAtlasFilePDF(c *gin.Context) {
	pdf, filename, err := atlasService(requestID(c)).PDF(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, "atlas", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
