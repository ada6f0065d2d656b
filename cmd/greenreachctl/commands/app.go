package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AppContext holds what every subcommand needs.
type AppContext struct {
	MongoURI  string
	Database  string
	JWTSecret string
	JWTIssuer string
	Env       string

	Logger *zap.Logger
	Client *mongo.Client
	DB     *mongo.Database
	Audit  *auditlog.Logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// BindFlags registers the connection flags. Defaults come from the same
// GREENREACH_* variables the server reads.
func (a *AppContext) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.MongoURI, "mongo-uri", envOr("GREENREACH_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	fs.StringVar(&a.Database, "db", envOr("GREENREACH_MONGO_DATABASE", "greenreach"), "MongoDB database name")
	fs.StringVar(&a.JWTSecret, "jwt-secret", os.Getenv("GREENREACH_JWT_SECRET"), "Token signing secret (must match the server)")
	fs.StringVar(&a.JWTIssuer, "jwt-issuer", envOr("GREENREACH_JWT_ISSUER", "greenreach"), "Token issuer (must match the server)")
	fs.StringVarP(&a.Env, "env", "e", "dev", "Environment: dev or prod (controls log format)")
}

// Init builds the logger and connects to MongoDB.
func (a *AppContext) Init(ctx context.Context) error {
	var err error
	if a.Env == "prod" {
		a.Logger, err = zap.NewProduction()
	} else {
		a.Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := wafflemongo.ValidateURI(a.MongoURI); err != nil {
		return fmt.Errorf("invalid --mongo-uri: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a.Client, err = mongo.Connect(connectCtx, options.Client().ApplyURI(a.MongoURI).SetAppName("greenreachctl"))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := a.Client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("failed to reach MongoDB: %w", err)
	}
	a.DB = a.Client.Database(a.Database)
	a.Audit = auditlog.New(audit.New(a.DB), a.Logger, auditlog.Config{})
	a.Logger.Debug("connected", zap.String("database", a.Database))
	return nil
}

// Close disconnects and flushes the logger. Safe to call after a failed Init.
func (a *AppContext) Close() {
	if a.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Client.Disconnect(ctx)
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

var errNoSecret = errors.New("--jwt-secret (or GREENREACH_JWT_SECRET) is required")
