package main

import "github.com/rogerwq/minimalist/cmd"

func main() {
	cmd.Execute()
}
