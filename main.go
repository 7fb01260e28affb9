package main

import "github.com/corvale/chorus/internal/cli"

func main() {
	cli.Execute()
}
