package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type registerFlightRequest struct {
	Airline    string `json:"airline"`
	Flight     string `json:"flight"`
	Timestamp  uint64 `json:"timestamp"`
	StatusCode uint8  `json:"status_code"`
	// Key is derived from airline, flight and timestamp when empty.
	Key string `json:"key"`
}

type setFlightStatusRequest struct {
	StatusCode *uint8 `json:"status_code"`
}

func (s *Server) RegisterFlight(c *gin.Context) {
	var req registerFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	airline, err := parseAddress("airline", req.Airline)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var key common.Hash
	if strings.TrimSpace(req.Key) != "" {
		key, err = parseFlightKey(req.Key)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	} else {
		if strings.TrimSpace(req.Flight) == "" {
			AbortWithError(c, newValidationError("flight", "invalid_flight", "flight or key is required"))
			return
		}
		key = s.store.DeriveFlightKey(airline, req.Flight, req.Timestamp)
	}

	ctx := c.Request.Context()
	if err := s.store.RegisterFlight(ctx, call(c, 0), req.StatusCode, req.Timestamp, airline, key); err != nil {
		AbortWithError(c, err)
		return
	}

	flight, err := s.store.GetRegisteredFlight(ctx, key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, flight)
}

func (s *Server) GetFlight(c *gin.Context) {
	key, err := parseFlightKey(c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	flight, err := s.store.GetRegisteredFlight(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, flight)
}

func (s *Server) SetFlightStatus(c *gin.Context) {
	key, err := parseFlightKey(c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setFlightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StatusCode == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status, err := s.store.SetFlightStatus(c.Request.Context(), call(c, 0), key, *req.StatusCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "status_code": status})
}

// DeriveFlightKey computes the key of ?airline=&flight=&timestamp= without
// touching state.
func (s *Server) DeriveFlightKey(c *gin.Context) {
	airline, err := parseAddress("airline", c.Query("airline"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	flight := c.Query("flight")
	if strings.TrimSpace(flight) == "" {
		AbortWithError(c, newValidationError("flight", "invalid_flight", "flight is required"))
		return
	}

	var timestamp uint64
	if raw := strings.TrimSpace(c.Query("timestamp")); raw != "" {
		timestamp, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			AbortWithError(c, newValidationError("timestamp", "invalid_timestamp", "timestamp must be an unsigned integer"))
			return
		}
	}

	key := s.store.DeriveFlightKey(airline, flight, timestamp)
	c.JSON(http.StatusOK, gin.H{"airline": airline, "flight": flight, "timestamp": timestamp, "key": key})
}
