package main

import "github.com/grantoftegaard/garden/internal/cli"

func main() {
	cli.Execute()
}
