package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"messenger/internal/database"
	"messenger/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type companiesFile struct {
	Companies []string `yaml:"companies"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run creates the companies listed in the seed file and reactivates the
// ones that were switched off.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/messenger.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var cfg companiesFile
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(cfg.Companies) == 0 {
		return fmt.Errorf("no companies in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}
	byName := make(map[string]*models.Company, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c
	}

	created, reactivated := 0, 0
	for _, name := range cfg.Companies {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if c, ok := byName[strings.ToLower(name)]; ok {
			if c.IsActive {
				continue
			}
			c.IsActive = true
			if err = db.UpdateCompany(ctx, c); err != nil {
				return fmt.Errorf("reactivate %s: %w", name, err)
			}
			reactivated++
			continue
		}
		c := &models.Company{Name: name, IsActive: true}
		if err = db.CreateCompany(ctx, c); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		byName[strings.ToLower(name)] = c
		created++
	}

	fmt.Printf("done: created=%d reactivated=%d\n", created, reactivated)
	return nil
}
