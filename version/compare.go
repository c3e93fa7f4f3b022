// Package version provides unified mechanisms for application version tracking, update discovery, and compatibility validation.
package version

import (
	"fmt"
	"strings"
)

// Compare orders two semantic version strings. Returns 1 when a is newer,
// -1 when b is newer, and 0 when they denote the same release. A leading
// "v" is tolerated on either side.
func Compare(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, err
	}

	bv, err := parseSemver(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		if av[i] != bv[i] {
			if av[i] > bv[i] {
				return 1, nil
			}
			return -1, nil
		}
	}

	return 0, nil
}

// parseSemver splits a version string into its major, minor and patch
// components.
func parseSemver(s string) ([3]int, error) {
	var c [3]int
	_, err := fmt.Sscanf(strings.TrimPrefix(s, "v"), "%d.%d.%d", &c[0], &c[1], &c[2])
	return c, err
}
