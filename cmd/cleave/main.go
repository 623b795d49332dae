package main

import "github.com/cleave-tools/cleave/internal/cli"

func main() {
	cli.Execute()
}
