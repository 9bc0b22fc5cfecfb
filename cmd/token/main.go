// Command token prints a signed API token for the campaign server.
package main

import (
	"flag"
	"fmt"
	"os"

	"campaign-server/internal/auth"
	"campaign-server/internal/shared/config"

	"github.com/joho/godotenv"
)

func main() {
	owner := flag.String("owner", "", "name of the token holder")
	role := flag.String("role", auth.RoleGameMaster, "gm or player")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(cfg.Auth.JWTSecret, *owner, *role, cfg.Auth.TokenExpiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
