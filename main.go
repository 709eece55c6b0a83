package main

import "github.com/papapumpkin/pacsea/cmd"

func main() {
	cmd.Execute()
}
