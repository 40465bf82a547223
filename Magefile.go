// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Test

// Test runs the full test suite with the race detector, the way a library
// with concurrent fan-out (Fetch/FetchGroups dispatch) needs to be tested.
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "-v", "./...")
}

// Lint runs go vet across the module.
func Lint() error {
	fmt.Println("Vetting...")
	return sh.RunV("go", "vet", "./...")
}

// Fmt formats Go code.
func Fmt() error {
	fmt.Println("Formatting Go code...")
	return sh.RunV("go", "fmt", "./...")
}
