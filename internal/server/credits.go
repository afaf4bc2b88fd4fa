package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	"go.uber.org/zap"
)

func (s *Server) Spend(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ledgerdomain.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OwnerID = ownerID

	ctx := c.Request.Context()

	allowed, err := s.guard.AllowOwner(ctx, ownerID)
	if err != nil {
		s.log.Warn("spend rate limit unavailable", zap.Error(err))
	} else if !allowed {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	token, locked, err := s.guard.TryLockOwner(ctx, ownerID)
	if err != nil {
		s.log.Warn("spend lock unavailable", zap.Error(err))
	} else if !locked {
		AbortWithError(c, ErrTooManyRequests)
		return
	}
	if token != "" {
		defer func() {
			if releaseErr := s.guard.ReleaseOwner(ctx, ownerID, token); releaseErr != nil {
				s.log.Warn("spend lock release failed", zap.Error(releaseErr))
			}
		}()
	}

	result, err := s.ledgerSvc.Spend(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Insufficient balance is a payment failure, not a server error.
	if !result.Success {
		c.JSON(http.StatusPaymentRequired, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Add(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ledgerdomain.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OwnerID = ownerID

	result, err := s.ledgerSvc.Add(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) TrackCost(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ledgerdomain.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OwnerID = ownerID

	txn, err := s.ledgerSvc.TrackRealCostOnly(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) Balance(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()

	if raw := c.Query("required"); raw != "" {
		required, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		result, err := s.ledgerSvc.CheckBalance(ctx, ownerID, required)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	balance, err := s.ledgerSvc.GetOrCreate(ctx, ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) Transactions(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := ledgerdomain.HistoryRequest{
		OwnerID:   ownerID,
		Type:      ledgerdomain.TransactionType(c.Query("type")),
		ProjectID: c.Query("project_id"),
		PageToken: c.Query("page_token"),
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || size < 0 {
			AbortWithError(c, invalidRequestError())
			return
		}
		req.PageSize = int32(size)
	}

	resp, err := s.ledgerSvc.History(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Statistics(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stats, err := s.statsSvc.UserStatistics(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
