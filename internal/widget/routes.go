package widget

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix.
func RegisterRoutes(r chi.Router, registry *Registry) {
	h := NewHandler(registry)

	r.Route("/calculator/sessions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/digit", h.Digit)
			r.Post("/operator", h.Operator)
			r.Post("/equals", h.Equals)
			r.Post("/clear", h.Clear)
			r.Post("/toggle-sign", h.ToggleSign)
			r.Post("/keys", h.Keys)
			r.Put("/theme", h.Theme)
		})
	})
}
