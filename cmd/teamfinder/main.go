package main

import "github.com/mcoot/teamfinder/internal/cli"

func main() {
	cli.Execute()
}
