package main

import "github.com/resumeload/resumeload/cmd"

func main() {
	cmd.Execute()
}
