package handlers

import (
	"net/http"

	"github.com/legalbook/relay/internal"
)

// Banner is the plain-text body served at "/".
const Banner = "Legalbook Email API Server is running"

// RootHandler serves the banner.
type RootHandler struct{}

// NewRoot creates the root handler.
func NewRoot() *RootHandler {
	return &RootHandler{}
}

// Routes implements internal.Handler.
func (h *RootHandler) Routes(r internal.Router) {
	r.GET("/", h.index)
}

func (h *RootHandler) index(c internal.Context) error {
	return c.String(http.StatusOK, Banner)
}
