package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/repository/postgres"
	"github.com/ignite/campaign-insights/internal/service/brand"
)

// seedFile is the on-disk brand list accepted by --seed.
type seedFile struct {
	Brands []struct {
		Brand    string `yaml:"brand"`
		Industry string `yaml:"industry"`
	} `yaml:"brands"`
}

func loadSeed(path string) ([]domain.Brand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]domain.Brand, 0, len(f.Brands))
	for _, b := range f.Brands {
		out = append(out, domain.Brand{Brand: b.Brand, Industry: b.Industry})
	}
	return out, nil
}

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	seed := ""
	listOnly := false
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--list":
			listOnly = true
		case "--seed":
			if i+1 >= len(args) {
				log.Fatal("--seed needs a file")
			}
			i++
			seed = args[i]
		default:
			log.Fatalf("unknown argument %q", args[i])
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	repo := postgres.NewBrandRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	svc := brand.NewService(repo)

	if seed != "" {
		brands, err := loadSeed(seed)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		var okCount, errCount int
		for _, b := range brands {
			if _, err := svc.Upsert(ctx, b); err != nil {
				fmt.Printf("  %s ... ERROR: %v\n", b.Brand, err)
				errCount++
				continue
			}
			okCount++
		}
		log.Printf("Seeded: %d OK, %d errors", okCount, errCount)
	}

	if listOnly {
		brands, err := svc.List(ctx)
		if err != nil {
			log.Fatal(err)
		}
		for _, b := range brands {
			fmt.Printf("  %-40s %s\n", b.Brand, b.Industry)
		}
		fmt.Printf("Total: %d brands\n", len(brands))
		return
	}
	log.Println("Migrations complete")
}
