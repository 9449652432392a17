package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/snmlog/transferplus/internal/auth"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token        string   `json:"token"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"display_name"`
	Role         string   `json:"role"`
	AllowedPaths []string `json:"allowed_paths"`
}

func (rt *Router) login(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ident, err := rt.auth.Authenticate(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		rt.log.WithError(err).Error("authentication backend failed")
		respondError(w, http.StatusServiceUnavailable, "authentication service unavailable")
		return
	}

	if ident.Role == models.RoleNoAccess {
		respondError(w, http.StatusForbidden, "user has no access to this system")
		return
	}

	token, err := rt.sessions.Issue(req.Context(), ident.Username, ident.Role)
	if err != nil {
		rt.log.WithError(err).Error("session issue failed")
		respondError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:        token,
		Username:     ident.Username,
		DisplayName:  ident.DisplayName,
		Role:         ident.Role,
		AllowedPaths: auth.AllowedPaths(ident.Role),
	})
}

func (rt *Router) logout(w http.ResponseWriter, req *http.Request) {
	authHeader := req.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		if err := rt.sessions.Revoke(req.Context(), parts[1]); err != nil {
			rt.log.WithError(err).Warn("logout revoke failed")
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (rt *Router) verifySession(w http.ResponseWriter, req *http.Request) {
	sess := middleware.SessionFrom(req)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"username":      sess.Username,
		"role":          sess.Role,
		"allowed_paths": auth.AllowedPaths(sess.Role),
	})
}
