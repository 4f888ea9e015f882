package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultTransferHistory = 50

func (s *Server) GetWallet(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.walletSvc.Balance(c.Request.Context(), addr)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr, "balance": newAmountResponse(balance)})
}

func (s *Server) ListWalletTransfers(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit := defaultTransferHistory
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
	}

	lines, err := s.walletSvc.History(c.Request.Context(), addr, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lines})
}

// Deposit credits a wallet with value from outside the system. It is only
// routed when the development faucet is enabled.
func (s *Server) Deposit(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	value, err := req.gwei()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.walletSvc.Deposit(c.Request.Context(), addr, value)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr, "balance": newAmountResponse(balance)})
}
