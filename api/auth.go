package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fixmate/internal/identity"
)

type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{identity: svc}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
	Pending bool   `json:"pending"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string             `json:"message"`
	User    *identity.Identity `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, "register", &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.identity.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "User registered successfully"
	if res.Pending {
		msg = "Registration received, check your email to verify the account"
	}
	writeJSON(w, registerResponse{Message: msg, ID: res.ID, Pending: res.Pending}, http.StatusCreated)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	who, err := h.identity.Verify(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, loginResponse{Message: "Email verified", User: who}, http.StatusOK)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, "login", &req); err != nil {
		writeError(w, r, err)
		return
	}

	who, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, loginResponse{Message: "Login successful", User: who}, http.StatusOK)
}

func (h *AuthHandler) Technicians(w http.ResponseWriter, r *http.Request) {
	names, err := h.identity.ListTechnicians(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, names, http.StatusOK)
}
