// Command seed populates the database with demo data.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"liber/internal/config"
	"liber/internal/database"
	"liber/internal/observability"
	"liber/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "number of users to create")
	numPosts := flag.Int("posts", 120, "number of posts to create")
	maxDays := flag.Int("max-days", 30, "spread post timestamps over this many days")
	clean := flag.Bool("clean", true, "wipe existing data before seeding")
	preset := flag.String("preset", "", "seed from a builtin preset or a YAML file ("+strings.Join(seed.BuiltinPresetNames(), ", ")+")")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration failed", "error", err)
		os.Exit(1)
	}
	observability.InitLogging(cfg.App.LogLevel, cfg.App.Environment)

	if cfg.IsProduction() {
		slog.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	s := seed.NewSeeder(db)

	if *clean {
		if err := s.ClearAll(); err != nil {
			slog.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	if *preset != "" {
		p, err := seed.ResolvePreset(*preset)
		if err != nil {
			slog.Error("preset resolution failed", "preset", *preset, "error", err)
			os.Exit(1)
		}
		slog.Info("seeding from preset", "name", p.Name)
		if err := s.Apply(p); err != nil {
			slog.Error("preset seeding failed", "error", err)
			os.Exit(1)
		}
	} else {
		err := s.Run(seed.Options{NumUsers: *numUsers, NumPosts: *numPosts, MaxDays: *maxDays})
		if err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("seeding complete")
}
