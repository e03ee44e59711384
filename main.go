package main

import "github.com/parisxmas/leadsite/internal/cli"

func main() {
	cli.Execute()
}
