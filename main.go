package main

import "github.com/pvlab-dev/pvlab/internal/cli"

func main() {
	cli.Execute()
}
