package main

import "github.com/karthikredddy7github/github-clone-tracker/cmd"

func main() {
	cmd.Execute()
}
