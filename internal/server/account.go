package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
)

func (s *Server) GetProfile(c *gin.Context) {
	ownerID := c.Param("owner_id")

	profile, err := s.accountSvc.Get(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if profile == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpsertProfile(c *gin.Context) {
	var req accountdomain.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OwnerID = c.Param("owner_id")

	profile, err := s.accountSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
