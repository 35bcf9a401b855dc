package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) ListPlanets(c *gin.Context) {
	req := domain.ListRequest{
		Limit:        queryInt(c, "limit", 0),
		Offset:       queryInt(c, "offset", 0),
		ForceRefresh: queryBool(c, "refresh"),
	}

	planets, err := s.catalog.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planets, "count": len(planets)})
}

func (s *Server) SearchPlanets(c *gin.Context) {
	planets, err := s.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planets, "count": len(planets)})
}

func (s *Server) FilterPlanetsByRange(c *gin.Context) {
	req := domain.RangeRequest{
		Field: domain.RangeField(strings.TrimSpace(c.Query("field"))),
		Min:   queryFloat(c, "min"),
		Max:   queryFloat(c, "max"),
	}

	planets, err := s.catalog.FilterByRange(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planets, "count": len(planets)})
}

func (s *Server) FilterPlanetsByMethod(c *gin.Context) {
	planets, err := s.catalog.FilterByDiscoveryMethod(c.Request.Context(), c.Param("method"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planets, "count": len(planets)})
}

func (s *Server) GetPlanet(c *gin.Context) {
	planet, err := s.catalog.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planet})
}

func (s *Server) ToggleFavorite(c *gin.Context) {
	found, err := s.catalog.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	planet, err := s.catalog.ToggleFavorite(c.Request.Context(), found.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planet})
}

func (s *Server) ListFavorites(c *gin.Context) {
	planets, err := s.catalog.Favorites(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planets, "count": len(planets)})
}

func (s *Server) GetProgress(c *gin.Context) {
	progress, err := s.catalog.Progress(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": progress})
}

// RefreshDataset reacquires the full dataset synchronously. Chunk progress is
// logged rather than streamed; the response carries the final record set size.
func (s *Server) RefreshDataset(c *gin.Context) {
	log := s.log
	planets, err := s.catalog.Refresh(c.Request.Context(), func(loaded, total int) {
		log.Info("refresh progress", zap.Int("loaded", loaded), zap.Int("total", total))
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(planets)})
}

func (s *Server) ClearCache(c *gin.Context) {
	if err := s.catalog.ClearCache(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, def int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func queryBool(c *gin.Context, key string) bool {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}

func queryFloat(c *gin.Context, key string) *float64 {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
