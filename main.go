package main

import "github.com/fenrow/prehook/cmd"

func main() {
	cmd.Execute()
}
