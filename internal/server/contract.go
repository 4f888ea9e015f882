package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setOperatingStatusRequest struct {
	Operational *bool `json:"operational"`
}

func (s *Server) GetOperatingStatus(c *gin.Context) {
	operational, err := s.store.IsOperational(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operational": operational})
}

func (s *Server) SetOperatingStatus(c *gin.Context) {
	var req setOperatingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Operational == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.store.SetOperatingStatus(c.Request.Context(), call(c, 0), *req.Operational); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operational": *req.Operational})
}

func (s *Server) IsAuthorizedCaller(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	authorized, err := s.store.IsAuthorizedCaller(c.Request.Context(), addr)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr, "authorized": authorized})
}

func (s *Server) AuthorizeCaller(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.governance.AuthorizeCaller(c.Request.Context(), call(c, 0), addr); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": addr, "authorized": true})
}

func (s *Server) DeauthorizeCaller(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.governance.DeauthorizeCaller(c.Request.Context(), call(c, 0), addr); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr, "authorized": false})
}
