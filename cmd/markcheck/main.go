package main

import (
	"github.com/markcheck/markcheck/pkg/cli"
)

func main() {
	cli.Main()
}
