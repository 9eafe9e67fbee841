// Command seed loads a reference-data YAML file (convenio hours and
// social-charge rates) into a running contributions service over gRPC.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"github.com/gartstein/contributions/internal/contributions/handlers"
	"github.com/gartstein/contributions/internal/contributions/seed"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	var (
		file      = flag.String("file", "", "seed file to apply; the built-in rates when empty")
		addr      = flag.String("addr", "localhost:50051", "gRPC address of the contributions service")
		token     = flag.String("token", os.Getenv("SEED_TOKEN"), "bearer token for write calls")
		overwrite = flag.Bool("overwrite", true, "replace values that already exist")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	doc := seed.Defaults()
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal("failed to open seed file", zap.Error(err))
		}
		doc, err = seed.Parse(f)
		_ = f.Close()
		if err != nil {
			logger.Fatal("failed to parse seed file", zap.Error(err))
		}
	}

	if *token == "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			logger.Fatal("either -token, SEED_TOKEN or JWT_SECRET is required")
		}
		t, err := auth.GenerateToken("seed", secret, *timeout)
		if err != nil {
			logger.Fatal("failed to sign token", zap.Error(err))
		}
		*token = t
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("failed to create gRPC client", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := &clientTarget{client: handlers.NewClient(conn, *token)}
	if _, err := seed.Apply(ctx, target, doc, *overwrite, logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
}
