package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/ticketi/ticketi-api/cmd/app"
)

// @title           Ticketi API
// @version         1.0
// @description     Event ticketing with primary sales and peer-to-peer resale.
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
