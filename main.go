package main

import "github.com/spaza-link/combo-catalog/cmd"

func main() {
	cmd.Execute()
}
