//nolint:gochecknoinits,dogsled
package test

import (
	"os"
	"path"
	"runtime"
)

// RootPath - absolute path of the project root.
func RootPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return path.Join(path.Dir(filename), "..")
}

// ConfigTestRootPath - go test runs with the folder of the package under test as
// working directory. This moves it to the project root, so that resources can be
// referenced with paths relative to the root.
func ConfigTestRootPath() {
	if err := os.Chdir(RootPath()); err != nil {
		panic(err)
	}
}
