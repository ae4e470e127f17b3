package main

import "shiv-erp/internal/adapters/cli"

func main() {
	cli.Execute()
}
