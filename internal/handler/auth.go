package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/auth"
	"github.com/dukerupert/todo/internal/service"
)

type AuthHandler struct {
	accounts *service.AccountService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AccountService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Password    string  `json:"password"`
	Role        string  `json:"user_role"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.TrimSpace(req.Email),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Password:    req.Password,
		Role:        req.Role,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Message     string `json:"message"`
}

// Login accepts an application/x-www-form-urlencoded username and password
// and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, r, h.logger, &requestError{http.StatusBadRequest, "invalid form body"})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		v := &apperr.ValidationError{}
		if username == "" {
			v.Add("username", "is required")
		}
		if password == "" {
			v.Add("password", "is required")
		}
		writeError(w, r, h.logger, v)
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), username, password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(account.Username, account.ID, account.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
		Message:     "Successful Authentication",
	})
}
