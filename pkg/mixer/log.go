// ABOUTME: Thin wrapper over the standard logger
package mixer

import "log"

func logf(format string, args ...interface{}) {
	log.Printf("[mixer] "+format, args...)
}
