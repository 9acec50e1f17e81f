package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link routes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "shorten",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Register a link",
		Description:   "Stores the URL under the requested alias, or under a generated one. A taken alias returns the link already stored there.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, h.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "link-stats",
		Method:      http.MethodGet,
		Path:        "/stats/{alias}",
		Summary:     "Link statistics",
		Description: "Returns the committed click total. Visits still being aggregated are not included.",
		Tags:        []string{"Links"},
	}, h.Stats)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{alias}",
		Summary:     "Redirect to the target URL",
		Tags:        []string{"Links"},
	}, h.Redirect)
}
