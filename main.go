package main

import "github.com/S342D32/Mini-Perplexity/internal/cli"

func main() {
	cli.Execute()
}
