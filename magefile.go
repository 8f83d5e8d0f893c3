//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

const binary = "bin/gstc"

var Default = Build

// Build compiles the gstc command line client.
func Build() error {
	updated, err := target.Dir(binary, "cmd", "pkg", "version")
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if !updated && err == nil {
		return nil
	}

	fmt.Println("building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/gstc")
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check builds, vets and tests.
func Check() {
	mg.SerialDeps(Build, Lint, Test)
}

func Clean() error {
	return sh.Rm("bin")
}
