package curling

import "fmt"

const (
	versionMajor = 1
	versionMinor = 1
	versionPatch = 0
)

// Version returns the library's semantic version string.
func Version() string {
	return fmt.Sprintf("%d.%d.%d", versionMajor, versionMinor, versionPatch)
}
