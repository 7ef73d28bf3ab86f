package main

import "fairbot/internal/cli"

func main() {
	cli.Execute()
}
