package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type tokenHandler struct {
	clients map[string][]byte
	secret  string
	ttl     time.Duration
	logger  *zap.Logger
}

func newTokenHandler(clients map[string][]byte, secret string, ttl time.Duration, logger *zap.Logger) *tokenHandler {
	return &tokenHandler{
		clients: clients,
		secret:  secret,
		ttl:     ttl,
		logger:  logger.Named("token_handler"),
	}
}

// ServeHTTP exchanges client credentials, sent as HTTP basic auth, for a
// signed token.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "client credentials required", http.StatusUnauthorized)
		return
	}
	hash, known := h.clients[id]
	if !known || bcrypt.CompareHashAndPassword(hash, []byte(secret)) != nil {
		h.logger.Warn("Rejected token request", zap.String("client_id", id))
		http.Error(w, "invalid client credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(id, h.secret, h.ttl)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := TokenResponse{Token: token, ExpiresIn: int64(h.ttl.Seconds())}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode token", zap.Error(err))
	}
}
