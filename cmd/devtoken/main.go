// Command devtoken signs an access token with the configured JWT secret so
// the API can be exercised locally without the storefront's identity provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/infrastructure/auth"
	"github.com/merch/byom/internal/infrastructure/config"
)

func main() {
	var (
		userID string
		email  string
		role   string
	)
	flag.StringVar(&userID, "user", "", "User ID (a new UUID when empty)")
	flag.StringVar(&email, "email", "dev@example.com", "Email claim")
	flag.StringVar(&role, "role", string(auth.RoleCustomer), "Role: customer or admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		fail("devtoken refuses to sign tokens with production configuration")
	}

	id := uuid.New()
	if userID != "" {
		if id, err = uuid.Parse(userID); err != nil {
			fail("Invalid user ID %q: %v", userID, err)
		}
	}

	r := auth.Role(role)
	if r != auth.RoleCustomer && r != auth.RoleAdmin {
		fail("Unknown role %q", role)
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateAccessToken(auth.GenerateTokenInput{
		UserID: id,
		Email:  email,
		Role:   r,
	})
	if err != nil {
		fail("Failed to sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user %s (%s), expires %s\n", id, r, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
