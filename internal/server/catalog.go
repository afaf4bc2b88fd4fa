package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
)

func (s *Server) ListCostRates(c *gin.Context) {
	rates, err := s.catalogSvc.ListRates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost_rates": rates})
}

func (s *Server) UpsertCostRate(c *gin.Context) {
	var req catalogdomain.UpsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rate, err := s.catalogSvc.UpsertRate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}
