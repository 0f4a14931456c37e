package main

import "query-advisor/internal/cli"

func main() {
	cli.Execute()
}
