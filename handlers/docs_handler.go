package handlers

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDoc string

type apiDoc struct{}

func (apiDoc) ReadDoc() string { return openAPIDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// DocsHandler serves Swagger UI under /swagger/; the UI loads /swagger/doc.json.
func DocsHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
}
