package main

import "tree-tracker/cli"

func main() {
	cli.Execute()
}
