package main

import (
	"github.com/impt-platform/installer/pkg/cli"
)

func main() {
	cli.Execute()
}
