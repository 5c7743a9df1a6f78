package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the catalog related api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/v1/books", m.public(api.CreateBook))
	router.GET("/v1/books", m.public(api.GetAllBooks))
	router.GET("/v1/books/:id", m.public(api.GetOneBook))
	router.GET("/v1/books/:id/ratings", m.public(api.GetBookRatings))
	router.GET("/v1/catalog/count", m.public(api.CountBooks))
	return router
}
