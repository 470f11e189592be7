//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the playground binary into ./bin.
func (Build) CLI() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/playground", "."), withStream()); err != nil {
		return err
	}
	return nil
}
