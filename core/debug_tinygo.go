//go:build tinygo

package core

// defaultDebugWriter uses the runtime console until the target installs a
// writer of its own.
func defaultDebugWriter(s string) {
	println(s)
}
