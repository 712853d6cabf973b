// Command main seeds demo content through the moderation engine.
package main

import (
	"context"
	"flag"
	"log"

	"shutterdesk/internal/bootstrap"
	"shutterdesk/internal/config"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"
	"shutterdesk/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Photographers, "photographers", opts.Photographers, "Number of photographers to simulate")
	flag.IntVar(&opts.ItemsPerPhotographer, "items", opts.ItemsPerPhotographer, "Submissions per photographer")
	flag.Float64Var(&opts.ReviewRatio, "review", opts.ReviewRatio, "Share of pending items to review")
	flag.Float64Var(&opts.ApproveRatio, "approve", opts.ApproveRatio, "Share of reviewed items to approve")
	flag.IntVar(&opts.AdminItems, "admin-items", opts.AdminItems, "Items published directly by the admin")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	adminID := flag.String("admin-id", "admin-seed", "Reviewer id recorded on reviewed items")
	adminName := flag.String("admin-name", "Seed Admin", "Reviewer display name")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production environment")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	admin := moderation.Actor{ID: *adminID, Name: *adminName, Role: models.RoleAdmin}
	if _, err := seed.NewSeeder(rt.Engine, admin, *randSeed).Run(ctx, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("All done.")
}
