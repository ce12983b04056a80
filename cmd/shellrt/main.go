package main

import "github.com/nfrund/shellrt/cmd/shellrt/cmd"

func main() {
	cmd.Execute()
}
