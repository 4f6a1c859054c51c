package main

import "github.com/aleph-zero/guardstack/cmd"

func main() {
	cmd.Execute()
}
