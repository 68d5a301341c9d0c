// Command server runs the PathNova API. All wiring lives in internal/cli.
package main

import (
	"context"
	"os"

	"github.com/pathnova/pathnova-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
