// Command token mints an access token for local development and testing.
// Login is handled outside this service.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
)

func main() {
	staffID := flag.String("staff", "", "staff ID to embed in the token")
	role := flag.String("role", string(user.RoleStaff), "role: admin or staff")
	flag.Parse()

	if *staffID == "" {
		fmt.Fprintln(os.Stderr, "-staff is required")
		os.Exit(2)
	}
	if _, ok := user.RolePermissions[user.Role(*role)]; !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	svc, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, _, err := svc.GenerateAccessToken(*staffID, user.Role(*role))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
