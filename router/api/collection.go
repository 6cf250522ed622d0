package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketsync/service"
)

// Collection collection API
func Collection(e *gin.Engine) {
	e.GET("/collection/page", pageCollection)
	e.GET("/collection/attributes", getCollectionAttributes)
	e.GET("/collection/:chain/:token", getCollection)
}

func pageCollection(c *gin.Context) {
	req := struct {
		Page     *int   `form:"page"`
		PageSize *int   `form:"page_size"`
		Chain    string `form:"chain"`
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
	res, err := service.FetchCollections(req.Chain, req.Owner, page, size)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func getCollectionAttributes(c *gin.Context) {
	req := struct {
		Chain    string `form:"chain"`
		Contract string `form:"contract"`
	}{}
	if err := c.BindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	res, err := service.FetchCollectionAttributes(req.Chain, req.Contract)
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func getCollection(c *gin.Context) {
	data, err := service.GetCollection(c.Param("chain"), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, service.ErrRes{ErrStr: err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
