package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/buildinfo"
	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/importer"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
	"github.com/snmlog/transferplus/internal/services/transfer"
	"github.com/snmlog/transferplus/internal/session"
	"github.com/snmlog/transferplus/internal/ws"
)

// Authenticator verifies credentials and resolves the user's role.
type Authenticator interface {
	Authenticate(username, password string) (*auth.Identity, error)
}

// Router wraps the mux router and the services behind the API.
type Router struct {
	*mux.Router
	db        *database.DB
	log       *logrus.Logger
	transfers *transfer.Service
	imports   *importer.Service
	sessions  *session.Manager
	auth      Authenticator
	hub       *ws.Hub
	validate  *validator.Validate
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(
	db *database.DB,
	log *logrus.Logger,
	transfers *transfer.Service,
	imports *importer.Service,
	sessions *session.Manager,
	authenticator Authenticator,
	hub *ws.Hub,
) *Router {
	rt := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		log:       log,
		transfers: transfers,
		imports:   imports,
		sessions:  sessions,
		auth:      authenticator,
		hub:       hub,
		validate:  validator.New(),
	}

	// Health check endpoint
	rt.HandleFunc("/health", rt.healthCheck).Methods("GET")

	// Activity stream, authenticated by token query parameter since
	// browsers cannot set headers on websocket dials.
	rt.HandleFunc("/ws", rt.serveActivityStream)

	api := rt.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequestLogger(log))

	// Auth routes
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/login", rt.login).Methods("POST")

	authed := api.PathPrefix("").Subrouter()
	authed.Use(middleware.Auth(sessions))
	authed.HandleFunc("/auth/logout", rt.logout).Methods("POST")
	authed.HandleFunc("/auth/verify-session", rt.verifySession).Methods("GET")

	// Lookups shared by every role with access
	authed.HandleFunc("/filtros/vessels", rt.listVessels).Methods("GET")
	authed.HandleFunc("/filtros/departments", rt.listDepartments).Methods("GET")

	// Dashboard
	dashboard := authed.PathPrefix("/dashboard").Subrouter()
	dashboard.Use(middleware.RequirePathAccess("/dashboard"))
	dashboard.HandleFunc("/stats", rt.dashboardStats).Methods("GET")
	dashboard.HandleFunc("/activities", rt.recentActivities).Methods("GET")

	// Desembarque stage
	desembarque := authed.PathPrefix("/desembarque").Subrouter()
	desembarque.Use(middleware.RequirePathAccess("/desembarque"))
	desembarque.HandleFunc("", rt.listDesembarque).Methods("GET")
	desembarque.HandleFunc("/confirm", rt.confirmDesembarque).Methods("POST")
	desembarque.HandleFunc("/insert", rt.insertManualRecord).Methods("POST")
	desembarque.HandleFunc("/upload", rt.uploadSpreadsheet).Methods("POST")
	desembarque.HandleFunc("/duplicates/{filename}", rt.downloadDuplicates).Methods("GET")

	// Conferencia stage
	conferencia := authed.PathPrefix("/conferencia").Subrouter()
	conferencia.Use(middleware.RequirePathAccess("/conferencia"))
	conferencia.HandleFunc("", rt.listConferencia).Methods("GET")
	conferencia.HandleFunc("/confirm", rt.confirmConferencia).Methods("POST")

	// Quarantine
	quarentena := authed.PathPrefix("/quarentena").Subrouter()
	quarentena.Use(middleware.RequirePathAccess("/quarentena"))
	quarentena.HandleFunc("", rt.listQuarentena).Methods("GET")
	quarentena.HandleFunc("/update", rt.updateQuarantine).Methods("POST")

	// LOM assignment
	lom := authed.PathPrefix("/lom").Subrouter()
	lom.Use(middleware.RequirePathAccess("/lom"))
	lom.HandleFunc("", rt.listPendingLOM).Methods("GET")
	lom.HandleFunc("/assign", rt.assignLOM).Methods("POST")

	// Embarque stage
	embarque := authed.PathPrefix("/embarque").Subrouter()
	embarque.Use(middleware.RequirePathAccess("/embarque"))
	embarque.HandleFunc("", rt.listEmbarque).Methods("GET")
	embarque.HandleFunc("/confirm", rt.confirmEmbarque).Methods("POST")
	embarque.HandleFunc("/manifest", rt.embarqueManifest).Methods("GET")
	embarque.HandleFunc("/{id}/image", rt.uploadEmbarqueImage).Methods("POST")
	embarque.HandleFunc("/{id}/image", rt.viewEmbarqueImage).Methods("GET")

	return rt
}

// healthCheck returns the health status of the API
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"commit":     buildinfo.CommitHash,
		"build_time": buildinfo.BuildTime,
		"started_at": buildinfo.StartTime,
	})
}

// serveActivityStream upgrades to websocket after validating the token.
func (rt *Router) serveActivityStream(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "token required")
		return
	}
	if _, err := rt.sessions.Validate(req.Context(), token); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}
	ws.ServeWs(rt.hub, w, req)
}

// requireAdmin enforces the ADMIN role inside a handler, for routes that
// are admin-only within an otherwise role-gated prefix.
func (rt *Router) requireAdmin(w http.ResponseWriter, req *http.Request) bool {
	sess := middleware.SessionFrom(req)
	if sess == nil || sess.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
