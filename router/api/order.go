package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketsync/service"
)

// Order marketplace order API
func Order(e *gin.Engine) {
	e.GET("/order/page", pageOrder)
	e.GET("/order/events", pageOrderEvents)
	e.GET("/order/:chain/:baseToken/:id", getOrder)
}

func pageOrder(c *gin.Context) {
	req := struct {
		Page      *int   `form:"page"`
		PageSize  *int   `form:"page_size"`
		Chain     string `form:"chain"`
		BaseToken string `form:"base_token"`
		Seller    string `form:"seller"`
		State     int    `form:"state"`
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
	res, err := service.FetchOrders(req.Chain, req.BaseToken, req.Seller, req.State, page, size)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func pageOrderEvents(c *gin.Context) {
	req := struct {
		Page     *int   `form:"page"`
		PageSize *int   `form:"page_size"`
		Chain    string `form:"chain"`
		OrderId  uint64 `form:"order_id"`
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
	res, err := service.FetchOrderEvents(req.Chain, req.OrderId, page, size)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func getOrder(c *gin.Context) {
	orderId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	data, err := service.GetOrder(c.Param("chain"), c.Param("baseToken"), orderId)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
