package main

import "github.com/rustyeddy/banksim/internal/cli"

func main() {
	cli.Execute()
}
