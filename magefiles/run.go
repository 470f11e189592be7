//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Imports the scene models once and exits.
func (Run) Playground() error {
	fmt.Println("Run playground...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "playground.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Imports the scene models and re-imports them on change.
func (Run) Watch() error {
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "playground.toml", "-watch"), withStream()); err != nil {
		return err
	}
	return nil
}
