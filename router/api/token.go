package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketsync/service"
)

// Token token API
func Token(e *gin.Engine) {
	e.GET("/token/page", pageToken)
	e.GET("/token/events", pageTokenEvents)
	e.GET("/token/:chain/:contract/:id", getToken)
}

func pageToken(c *gin.Context) {
	req := struct {
		Page     *int   `form:"page"`
		PageSize *int   `form:"page_size"`
		Chain    string `form:"chain"`
		Contract string `form:"contract"`
		Owner    string `form:"owner"`
	}{}
	if err := c.BindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	page, size, err := service.ParsePage(req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	res, err := service.FetchTokens(req.Chain, req.Contract, req.Owner, page, size)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func pageTokenEvents(c *gin.Context) {
	req := struct {
		Page     *int   `form:"page"`
		PageSize *int   `form:"page_size"`
		Chain    string `form:"chain"`
		Contract string `form:"contract"`
		TokenId  string `form:"token_id"`
	}{}
	if err := c.BindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	page, size, err := service.ParsePage(req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	res, err := service.FetchTokenEvents(req.Chain, req.Contract, req.TokenId, page, size)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func getToken(c *gin.Context) {
	data, err := service.GetToken(c.Param("chain"), c.Param("contract"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
