// Package main provides a CLI tool for generating test bearer tokens for the
// sentra API. These tokens use the dev signing key and will NOT work against a
// production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"sentra/internal/identity"
	domain "sentra/pkg/domain"
)

// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

func main() {
	userIDFlag := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	ttl := flag.Duration("ttl", 15*time.Minute, "Token time-to-live")
	key := flag.String("key", devSigningKey, "JWT signing key")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	raw := *userIDFlag
	if raw == "" {
		raw = uuid.NewString()
	}
	userID, err := domain.ParseUserID(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
		os.Exit(1)
	}

	token, err := identity.NewJWTVerifier(*key).Mint(userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(map[string]string{
			"token":      token,
			"user_id":    userID.String(),
			"expires_in": ttl.String(),
			"usage":      "curl -H 'Authorization: Bearer <token>' http://localhost:8080/v1/preferences",
		}, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("user id: %s\n", userID)
	fmt.Printf("token:   %s\n", token)
}
