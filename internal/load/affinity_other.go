//go:build !linux

package load

import "runtime"

// pin only locks the thread; affinity is not available on this platform
func pin(int) error {
	runtime.LockOSThread()
	return nil
}
