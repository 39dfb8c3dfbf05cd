package api

import (
	"net/http"

	"github.com/JaimeStill/warden/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	protect ...func(http.Handler) http.Handler,
) {
	routes.Register(
		mux,
		domain.Coupons.Handler().Routes(),
		domain.Expirations.Handler(protect...).Routes(),
	)
}
