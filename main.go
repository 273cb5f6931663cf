package main

import "github.com/draftcast/draftcast/cmd"

func main() {
	cmd.Execute()
}
