package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListPackages(c *gin.Context) {
	activeOnly := !strings.EqualFold(c.Query("include_retired"), "true")

	packages, err := s.catalogSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func (s *Server) GetPackage(c *gin.Context) {
	pkg, err := s.catalogSvc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

type createPackageRequest struct {
	Name        string  `json:"name" binding:"required"`
	Tokens      int64   `json:"tokens" binding:"required"`
	BonusTokens int64   `json:"bonus_tokens"`
	StorageGB   float64 `json:"storage_gb"`
	PriceCents  int64   `json:"price_cents" binding:"required"`
	Currency    string  `json:"currency"`
}

func (s *Server) CreatePackage(c *gin.Context) {
	var req createPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pkg, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreatePackageRequest{
		Name:        req.Name,
		Tokens:      req.Tokens,
		BonusTokens: req.BonusTokens,
		StorageGB:   req.StorageGB,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

type updatePackageRequest struct {
	PriceCents *int64 `json:"price_cents"`
	Active     *bool  `json:"active"`
}

func (s *Server) UpdatePackage(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_package_id", "invalid value"))
		return
	}

	var req updatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pkg, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdatePackageRequest{
		ID:         id,
		PriceCents: req.PriceCents,
		Active:     req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}
