package main

import "github.com/HaiFongPan/upload-form/cmd"

func main() {
	cmd.Execute()
}
