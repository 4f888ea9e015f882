package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type registerAirlineRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type fundAirlineRequest struct {
	valueRequest
	// Declared is the amount the airline claims to send; zero means "whatever is attached".
	Declared int64 `json:"declared"`
}

// RegisterAirline answers 201 when the candidate joined the registry and 202
// when the request only recorded a vote.
func (s *Server) RegisterAirline(c *gin.Context) {
	var req registerAirlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	candidate, err := parseAddress("address", req.Address)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.governance.RegisterAirline(c.Request.Context(), call(c, 0), candidate, strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusAccepted
	if result.Registered {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (s *Server) GetAirline(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	airline, err := s.store.GetAirline(c.Request.Context(), addr)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, airline)
}

// FundAirline funds the airline in the path with the attached value. An
// airline funding itself goes through governance.
func (s *Server) FundAirline(c *gin.Context) {
	airline, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req fundAirlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	value, err := req.gwei()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if req.Declared < 0 {
		AbortWithError(c, newValidationError("declared", "invalid_declared", "declared must not be negative"))
		return
	}

	ctx := c.Request.Context()
	invocation := call(c, value)
	if invocation.From == airline {
		err = s.governance.AirlineFunding(ctx, invocation, req.Declared)
	} else {
		err = s.store.Fund(ctx, invocation, airline, req.Declared)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	funds, err := s.store.CheckFunds(ctx, airline)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"airline": airline, "funds": newAmountResponse(funds)})
}

func (s *Server) CheckFunds(c *gin.Context) {
	airline, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	funds, err := s.governance.CheckFunds(c.Request.Context(), airline)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"airline": airline, "funds": newAmountResponse(funds)})
}

func (s *Server) ResetAirlineFunding(c *gin.Context) {
	airline, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.store.ResetAirlineFunding(c.Request.Context(), call(c, 0), airline); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListFundedAirlines(c *gin.Context) {
	funded, err := s.store.GetNumOfFundedAirlines(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": funded, "count": len(funded)})
}

func (s *Server) ListMultiSigAirlines(c *gin.Context) {
	registered, err := s.store.MultiSigAirlines(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": registered, "count": len(registered)})
}

func (s *Server) ListVotes(c *gin.Context) {
	candidate, err := parseAddress("candidate", c.Param("candidate"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	voters, err := s.governance.Votes(c.Request.Context(), candidate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidate": candidate, "voters": voters, "votes": len(voters)})
}

func (s *Server) ResetVotes(c *gin.Context) {
	candidate, err := parseAddress("candidate", c.Param("candidate"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.governance.ResetVotes(c.Request.Context(), call(c, 0), candidate); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
