package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	ledgerdomain "github.com/constructia/billing/internal/ledger/domain"
	"github.com/constructia/billing/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type registerClientRequest struct {
	Email       string `json:"email" binding:"required"`
	CompanyName string `json:"company_name"`
}

func (s *Server) RegisterClient(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.accountSvc.Register(c.Request.Context(), accountdomain.RegisterAccountRequest{
		Email:       req.Email,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (s *Server) GetClient(c *gin.Context) {
	id, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	account, err := s.accountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

type listPurchasesResponse struct {
	pagination.PageInfo
	Purchases []ledgerdomain.PurchaseRecord `json:"purchases"`
}

func (s *Server) ListClientPurchases(c *gin.Context) {
	id, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	var cursor *ledgerdomain.PurchaseCursor
	if strings.TrimSpace(page.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		cursorID, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		cursor = &ledgerdomain.PurchaseCursor{ID: cursorID, CreatedAt: createdAt}
	}

	items, err := s.ledgerRepo.ListPurchases(c.Request.Context(), s.db, ledgerdomain.ListPurchaseFilter{
		ClientID: id,
		Cursor:   cursor,
		Limit:    pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *ledgerdomain.PurchaseRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	purchases := make([]ledgerdomain.PurchaseRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		purchases = append(purchases, *item)
	}

	resp := listPurchasesResponse{Purchases: purchases}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListClientActivity(c *gin.Context) {
	id, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.ListActivityRequest{
		Pagination:   page,
		ClientID:     id,
		ActivityType: strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseClientID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		return 0, newValidationError("id", "invalid_account_id", "invalid value")
	}
	return id, nil
}
