package main

import "MedMemory/backend/go/cmd/memory_cli/cmd"

func main() {
	cmd.Execute()
}
