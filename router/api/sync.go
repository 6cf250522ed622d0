package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketsync/service"
)

// Sync synchronization status API
func Sync(e *gin.Engine) {
	e.GET("/sync/status", getSyncStatus)
	e.GET("/sync/rates", getRates)
}

func getSyncStatus(c *gin.Context) {
	res, err := service.SyncStatus()
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func getRates(c *gin.Context) {
	res, err := service.LatestRates()
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
