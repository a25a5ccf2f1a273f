package main

import (
	"fmt"
	"os"

	"staticcms/app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cmsctl: %v\n", err)
		os.Exit(1)
	}
}
