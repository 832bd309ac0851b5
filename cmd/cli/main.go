package main

import (
	"fmt"
	"os"

	"github.com/de-tools/redflag/pkg/runtime/terminal"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cli := terminal.NewCLI(terminal.Options{
		Vendors: semantic.DefaultRegistry(),
		Output:  os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
