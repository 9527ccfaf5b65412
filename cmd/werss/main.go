package main

import "werss-client/internal/client/cmd"

func main() {
	cmd.Execute()
}
