// Command devtoken mints a signed access token for local development.
// Production identities come from the intranet login system.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
	"github.com/iliyamo/desk-seat-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "person id to put in the subject claim (random when empty)")
	role := flag.String("role", middleware.RoleMember, "role claim: MEMBER or ADMIN")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	if *role != middleware.RoleMember && *role != middleware.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}
	if *sub == "" {
		*sub = uuid.NewString()
	}

	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "sub=%s role=%s expires=%s\n", *sub, *role, tok.Exp.Format(time.RFC3339))
	fmt.Println(tok.Token)
}
