package main

import "github.com/Mohsinsiddi/coffee/cmd"

func main() {
	cmd.Execute()
}
