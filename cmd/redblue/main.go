package main

import "github.com/mcoot/redblue/internal/cli"

func main() {
	cli.Execute()
}
