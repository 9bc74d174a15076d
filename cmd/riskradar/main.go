package main

import (
	"os"

	"vigil.fyi/riskradar/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
