package main

import (
	"log"

	"github.com/fieldops/dispatchd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
