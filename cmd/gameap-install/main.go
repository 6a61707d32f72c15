package main

import "github.com/edvin/gameap-install/internal/cli"

func main() {
	cli.Execute()
}
