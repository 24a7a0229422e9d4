package main

import "github.com/sujalbistaa/threadline/internal/cli"

func main() {
	cli.Execute()
}
