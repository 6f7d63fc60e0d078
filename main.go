package main

import (
	"github.com/joho/godotenv"
	"github.com/tieubaoca/lawchat-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// A missing .env is fine, secrets may come from the environment.
	godotenv.Load()
}
