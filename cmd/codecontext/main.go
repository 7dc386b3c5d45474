package main

import "github.com/codecontext/codecontext/internal/cli"

func main() {
	cli.Execute()
}
