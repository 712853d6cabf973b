// Command main mints a signed session token for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"shutterdesk/internal/config"
	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"
)

func main() {
	userID := flag.String("user", "", "Subject (user id)")
	role := flag.String("role", string(models.RolePhotographer), "Role: admin or photographer")
	name := flag.String("name", "", "Display name")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	if !models.Role(*role).Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to mint tokens for a production environment")
	}

	auth := middleware.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	token, err := auth.IssueToken(middleware.Identity{
		UserID: *userID,
		Role:   models.Role(*role),
		Name:   *name,
	}, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
