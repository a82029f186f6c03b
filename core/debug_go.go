//go:build !tinygo

package core

import "log"

// defaultDebugWriter sends debug output to the standard logger on the host.
func defaultDebugWriter(s string) {
	log.Print(s)
}
