package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/migrate"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/security"
)

const envSeedAdminPassword = "PDV_SEED_ADMIN_PASSWORD"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate|seed-admin")
	dir := flag.String("dir", "", "migrations directory on disk (empty: migrations embedded in the binary)")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	adminName := flag.String("admin-name", "Administrador", "operator name (seed-admin)")
	adminCode := flag.String("admin-code", "ADMIN", "operator code (seed-admin)")
	flag.Parse()

	// create and validate work on files only
	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		var err error
		if *dir == "" {
			err = migrate.ValidateFS(migrate.Migrations, "migrations")
		} else {
			err = migrate.ValidateDir(*dir)
		}
		if err != nil {
			exitf("migration validation failed:\n%v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd, "dir": *dir})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	requireResource(ctx, logg, "sql database", err)

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd); err != nil {
			exitf("goose %s failed: %v", *cmd, err)
		}
	case "version":
		if *version == "" {
			exitf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			exitf("goose version migrate failed: %v", err)
		}
	case "seed-admin":
		if err := seedAdmin(ctx, dbClient, cfg.Password, *adminName, *adminCode, os.Getenv(envSeedAdminPassword)); err != nil {
			exitf("seed admin failed: %v", err)
		}
		logg.Info(logg.WithField(ctx, "code", *adminCode), "admin operator ready")
		return
	default:
		exitf("unknown -cmd value: %s", *cmd)
	}
	logg.Info(ctx, "migrate command finished")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

// seedAdmin creates the first admin operator. An existing operator with the same code is left alone.
func seedAdmin(ctx context.Context, client *db.Client, pwCfg config.PasswordConfig, name, code, password string) error {
	if err := security.ValidatePassword(password); err != nil {
		return fmt.Errorf("%s: %w", envSeedAdminPassword, err)
	}
	repo := operators.NewRepository(client.DB())
	if _, err := repo.FindByCode(ctx, code); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return err
	}
	return repo.Create(ctx, &models.Operator{
		Name:         name,
		Code:         code,
		PasswordHash: hash,
		Role:         enums.OperatorRoleAdmin,
		IsActive:     true,
	})
}
