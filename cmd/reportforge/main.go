package main

import (
	"reportforge/cmd/handlers"
)

func main() {
	handlers.Execute()
}
