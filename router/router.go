package router

import (
	"github.com/gin-gonic/gin"

	"marketsync/middleware"
	"marketsync/router/api"
)

func Run(addr string) error {
	r := gin.New()
	// Allow cross-domain access, and those with nginx and other proxies can be closed
	r.Use(middleware.Cors())
	// Set up accessible routes
	api.Token(r)
	api.Order(r)
	api.Collection(r)
	api.Sync(r)
	return r.Run(addr)
}
