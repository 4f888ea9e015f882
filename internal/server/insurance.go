package server

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
)

type buyInsuranceRequest struct {
	valueRequest
	// Beneficiary defaults to the caller.
	Beneficiary string `json:"beneficiary"`
	Flight      string `json:"flight"`
}

type insuranceResponse struct {
	Beneficiary common.Address `json:"beneficiary"`
	Flight      string         `json:"flight"`
	Amount      int64          `json:"amount"`
	AmountEther string         `json:"amount_ether"`
}

func newInsuranceResponse(view ledgerdomain.InsuranceView) insuranceResponse {
	return insuranceResponse{
		Beneficiary: view.Beneficiary,
		Flight:      view.Flight,
		Amount:      view.Amount,
		AmountEther: walletdomain.FormatEther(view.Amount),
	}
}

func (s *Server) BuyInsurance(c *gin.Context) {
	var req buyInsuranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	value, err := req.gwei()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invocation := call(c, value)
	beneficiary := invocation.From
	if strings.TrimSpace(req.Beneficiary) != "" {
		beneficiary, err = parseAddress("beneficiary", req.Beneficiary)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := s.store.Buy(ctx, invocation, beneficiary, req.Flight); err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.store.InsuranceQuery(ctx, beneficiary)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newInsuranceResponse(view))
}

func (s *Server) GetInsurance(c *gin.Context) {
	beneficiary, err := parseAddress("beneficiary", c.Param("beneficiary"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.store.InsuranceQuery(c.Request.Context(), beneficiary)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newInsuranceResponse(view))
}

func (s *Server) CreditInsurees(c *gin.Context) {
	beneficiary, err := parseAddress("beneficiary", c.Param("beneficiary"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	credit, err := s.store.CreditInsurees(c.Request.Context(), call(c, 0), beneficiary)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"beneficiary": beneficiary, "credit": newAmountResponse(credit)})
}

func (s *Server) GetPendingCredit(c *gin.Context) {
	beneficiary, err := parseAddress("beneficiary", c.Param("beneficiary"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	credit, err := s.store.PendingCreditQuery(c.Request.Context(), beneficiary)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"beneficiary": beneficiary, "credit": newAmountResponse(credit)})
}

// Pay transfers the caller's pending credit to the caller's wallet.
func (s *Server) Pay(c *gin.Context) {
	invocation := call(c, 0)
	paid, err := s.store.Pay(c.Request.Context(), invocation)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"beneficiary": invocation.From, "paid": newAmountResponse(paid)})
}
