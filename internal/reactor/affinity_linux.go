//go:build linux

package reactor

import "golang.org/x/sys/unix"

// pinCPU binds the calling OS thread to cpu via sched_setaffinity.
func pinCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
