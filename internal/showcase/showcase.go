// Package showcase serves the storefront demo endpoints. Its product list
// is a fixed literal and shares nothing with the catalog store.
package showcase

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Transflower/pkg/kit"
)

type Item struct {
	ID    int     `json:"Id"`
	Name  string  `json:"Name"`
	Price float64 `json:"Price"`
}

var featured = []Item{
	{ID: 1, Name: "Gerbera", Price: 9.99},
	{ID: 2, Name: "Rose", Price: 19.99},
	{ID: 3, Name: "Tulip", Price: 29.99},
}

func Register(r chi.Router) {
	r.Get("/hello", hello)
	r.Get("/api/products", products)
}

func hello(w http.ResponseWriter, _ *http.Request) {
	kit.WriteText(w, http.StatusOK, "Hello World!")
}

func products(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, featured)
}
