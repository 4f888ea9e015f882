package server

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/flightsurety/internal/callerauth"
	obscontext "github.com/smallbiznis/flightsurety/internal/observability/context"
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextCallerKey = "caller"
	maxSignedBody    = 1 << 20
)

// CallerContext authenticates the calling account from the X-Caller-* headers
// and attaches it, with the client address, to the request context. Requests
// without X-Caller-Address proceed anonymously.
func (s *Server) CallerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := obscontext.WithClient(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		raw := strings.TrimSpace(c.GetHeader(callerauth.HeaderAddress))
		if raw != "" {
			if !common.IsHexAddress(raw) {
				AbortWithError(c, newValidationError("caller", "invalid_caller", "X-Caller-Address is not a hex address"))
				return
			}
			claimed := common.HexToAddress(raw)
			if err := s.authenticate(c, claimed); err != nil {
				logger.FromContext(ctx).Info("caller authentication failed",
					zap.String("caller", claimed.Hex()),
					zap.Error(err),
				)
				AbortWithError(c, err)
				return
			}
			c.Set(contextCallerKey, claimed)
			c.Request = c.Request.WithContext(obscontext.WithCaller(ctx, claimed.Hex()))
		}

		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context, claimed common.Address) error {
	if s.verifier == nil {
		return ErrServiceUnavailable
	}

	sigHex := strings.TrimSpace(c.GetHeader(callerauth.HeaderSignature))
	tsRaw := strings.TrimSpace(c.GetHeader(callerauth.HeaderTimestamp))
	if sigHex == "" || tsRaw == "" {
		return callerauth.ErrMissingSignature
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return callerauth.ErrInvalidSignature
	}
	timestamp, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return callerauth.ErrStaleTimestamp
	}

	body, err := bufferBody(c)
	if err != nil {
		return invalidRequestError()
	}

	err = s.verifier.Verify(c.Request.Context(), claimed, callerauth.Request{
		Method:    c.Request.Method,
		URI:       c.Request.URL.RequestURI(),
		Body:      body,
		Timestamp: timestamp,
	}, sig)
	if err != nil && !callerauth.IsAuthFailure(err) {
		logger.FromContext(c.Request.Context()).Warn("replay guard unavailable", zap.Error(err))
		return ErrServiceUnavailable
	}
	return err
}

// bufferBody reads the request body for signing and puts it back for binding.
func bufferBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSignedBody))
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func (s *Server) CallerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := callerFromGin(c); !ok {
			AbortWithError(c, ErrMissingCaller)
			return
		}
		c.Next()
	}
}

// CallerRateLimit bounds mutating requests per caller address.
func (s *Server) CallerRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		key := c.ClientIP()
		if caller, ok := callerFromGin(c); ok {
			key = caller.Hex()
		}

		ctx := c.Request.Context()
		result, err := s.limiter.Allow(ctx, key)
		if err != nil {
			logger.FromContext(ctx).Warn("caller rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			logger.FromContext(ctx).Info("caller rate limited", zap.String("caller", key))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func callerFromGin(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(contextCallerKey)
	if !ok {
		return common.Address{}, false
	}
	caller, ok := v.(common.Address)
	return caller, ok
}
