package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rentwheels/car-rental-backend/internal/utils"
	"github.com/rentwheels/car-rental-backend/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "mint a development access token for this user id (uses JWT_SECRET)")
	roles := flag.String("roles", "", "comma separated roles for the development token, e.g. admin")
	ttl := flag.Duration("ttl", time.Hour, "development token lifetime")
	flag.Parse()

	if *userID != "" {
		mintToken(*userID, *roles, *ttl)
		return
	}

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for Car Rental Backend")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateJWTSecret()
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("✅ Secret generated successfully!")
	fmt.Println()
	fmt.Println("Add this to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Keep this secret safe and never commit it to version control!")
	fmt.Println("===========================================")
}

func mintToken(userID, roles string, ttl time.Duration) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set to mint a token")
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "car-rental-auth"
	}

	var roleList []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := jwt.NewService(secret, issuer, ttl).GenerateAccessToken(userID, "", roleList)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
