package main

import "github.com/hostgate-io/hostgate/internal/cli"

func main() {
	cli.Execute()
}
