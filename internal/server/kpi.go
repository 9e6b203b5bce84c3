package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetKPISnapshot(c *gin.Context) {
	snapshot, err := s.kpiSvc.Snapshot(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
