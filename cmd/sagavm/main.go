// Command sagavm runs SAGA game scripts.
package main

import (
	"fmt"
	"os"

	"github.com/grayfoxier/scummvm/pkg/app"
)

func main() {
	application := app.New(nil)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
