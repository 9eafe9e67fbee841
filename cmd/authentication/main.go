// This is a **mock authentication service** issuing JWTs for the
// contributions service. Clients authenticate with an id and a secret whose
// bcrypt hash is listed in the clients file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort   = "8081"
	defaultSecret = "jwt_secret"
)

// clientsFile maps client ids to bcrypt hashes of their secrets.
type clientsFile struct {
	Clients map[string]string `yaml:"clients"`
}

func main() {
	hash := flag.String("hash", "", "print the bcrypt hash of the given client secret and exit")
	flag.Parse()

	if *hash != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(*hash), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(h))
		return
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	secret := envOr("JWT_SECRET", defaultSecret)
	port := envOr("AUTH_PORT", defaultPort)

	clients, err := loadClients(os.Getenv("AUTH_CLIENTS_FILE"))
	if err != nil {
		logger.Fatal("failed to load clients", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/token", newTokenHandler(clients, secret, auth.DefaultTokenTTL, logger))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Authentication service running", zap.String("port", port), zap.Int("clients", len(clients)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadClients(path string) (map[string][]byte, error) {
	if path == "" {
		return nil, errors.New("AUTH_CLIENTS_FILE is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f clientsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	clients := make(map[string][]byte, len(f.Clients))
	for id, h := range f.Clients {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("client %s: %w", id, err)
		}
		clients[id] = []byte(h)
	}
	return clients, nil
}
