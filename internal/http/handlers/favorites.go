package handlers

import (
	"net/http"

	"travelatlas/internal/domain/models"
	"travelatlas/internal/services"

	"github.com/gin-gonic/gin"
)

func favoriteService(c *gin.Context) services.FavoriteService {
	return services.FavoriteService{RequestID: requestID(c)}
}

// GET /api/favorite-places
func GetFavoritePlaces(c *gin.Context) {
	list, err := favoriteService(c).List(c.Request.Context(), userID(c))
	if err != nil {
		RespondDomainError(c, "favorite", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/favorite-places
func CreateFavoritePlace(c *gin.Context) {
	var in models.FavoritePlaceInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := favoriteService(c).Create(c.Request.Context(), userID(c), in)
	if err != nil {
		RespondDomainError(c, "favorite", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /api/favorite-places/:id
func UpdateFavoritePlace(c *gin.Context) {
	var in models.FavoritePlaceInput
	if !BindJSONOrError(c, &in) {
		return
	}
	p, err := favoriteService(c).Update(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, "favorite", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/favorite-places/:id
func DeleteFavoritePlace(c *gin.Context) {
	if err := favoriteService(c).Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		RespondDomainError(c, "favorite", err)
		return
	}
	c.Status(http.StatusNoContent)
}
