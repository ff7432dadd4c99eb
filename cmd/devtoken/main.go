// Command devtoken firma un JWT de desarrollo con JWT_SECRET.
// Uso: go run ./cmd/devtoken -tenant <uuid> -rol supervisor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ferrepos/internal/config"
	"ferrepos/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	tenant := flag.String("tenant", "", "tenant id")
	usuario := flag.String("usuario", "", "user id (default: new uuid)")
	rol := flag.String("rol", middleware.RolCajero, "cajero | supervisor | administrador")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil || cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	if _, err := uuid.Parse(*tenant); err != nil {
		fmt.Fprintln(os.Stderr, "-tenant must be a uuid")
		os.Exit(1)
	}
	if *usuario == "" {
		*usuario = uuid.NewString()
	}

	claims := middleware.JWTClaims{
		UserID:   *usuario,
		TenantID: *tenant,
		Username: "dev-" + *rol,
		Rol:      *rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
