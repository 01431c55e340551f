package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router envoltorio fino sobre http.ServeMux de la biblioteca estándar.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSeguimientoRoutes monta el módulo de alertas bajo la ruta base.
func (r *Router) RegisterSeguimientoRoutes(h *AlertasHandler) {
	r.HandleHandler(rutaBase+"/alertas", h)
	r.HandleHandler(rutaBase+"/alertas/", h)
	r.HandleHandler(rutaBase+"/evaluar/", h)
	r.HandleHandler(rutaBase+"/casos/", h)

	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("healthy"))
	})
}
