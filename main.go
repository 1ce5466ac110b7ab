package main

import "github.com/humanzai/cpdash/cmd"

func main() {
	cmd.Execute()
}
