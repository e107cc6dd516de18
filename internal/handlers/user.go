// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/inkwell/internal/auth"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/sirupsen/logrus"
)

type userRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// requireDB answers 503 when accounts are unavailable because no database is configured.
func requireDB(w http.ResponseWriter) bool {
	if database.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "accounts are disabled")
		return false
	}
	return true
}

// CreateUserHandler handles POST /user/create.
func CreateUserHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if req.Email == "" || req.Password == "" || req.Username == "" {
			writeError(w, http.StatusBadRequest, "email, password and username are required")
			return
		}
		if !requireDB(w) {
			return
		}

		user := models.User{
			Email:    req.Email,
			Password: req.Password,
			Username: req.Username,
		}
		if err := database.CreateUser(r.Context(), &user); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				writeError(w, http.StatusConflict, "email already exists")
				return
			}
			logger.Errorf("Failed to create user: %v", err)
			writeError(w, http.StatusInternalServerError, "error creating user")
			return
		}
		user.Password = ""
		writeJSON(w, http.StatusCreated, user)
	}
}

// LoginHandler handles POST /user/login.
//
// Request payload:
//
//	{
//	  "email": "someone@example.com",
//	  "password": "password"
//	}
//
// The account token is returned in the body and set as the auth cookie.
func LoginHandler(logger *logrus.Logger, signer *auth.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if !requireDB(w) {
			return
		}

		user, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Infof("Failed login for %s: %v", req.Email, err)
			writeError(w, http.StatusForbidden, "authentication failed")
			return
		}
		token, err := signer.Issue(user.ID, uuid.Nil)
		if err != nil {
			logger.Errorf("Failed to issue token: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    token,
			HttpOnly: true,
			Path:     "/",
		})
		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
	}
}
