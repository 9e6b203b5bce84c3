package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CheckoutRateLimit throttles checkout opening per client IP. Redis-less
// deployments pass everything through.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingressLimiter.Enabled() {
			c.Next()
			return
		}

		res, err := s.ingressLimiter.AllowCheckout(c.Request.Context(), c.ClientIP())
		if err != nil {
			// A broken limiter must not take checkout down with it.
			c.Next()
			return
		}
		if !res.Allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "checkout", "rate")
			}
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrTooManyReqs)
			return
		}
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), "checkout")
		}
		c.Next()
	}
}

// WebhookRateLimit throttles confirmation ingestion per provider.
func (s *Server) WebhookRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingressLimiter.Enabled() {
			c.Next()
			return
		}

		provider := strings.TrimSpace(c.Param("provider"))
		res, err := s.ingressLimiter.AllowWebhook(c.Request.Context(), provider)
		if err != nil {
			c.Next()
			return
		}
		if !res.Allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "webhook", "rate")
			}
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrTooManyReqs)
			return
		}
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), "webhook")
		}
		c.Next()
	}
}
