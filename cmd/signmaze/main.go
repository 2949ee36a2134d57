package main

import "github.com/mcoot/signmaze/internal/cli"

func main() {
	cli.Execute()
}
