package main

import (
	"os"
	"syscall"

	"github.com/golang/glog"
)

// execResetter restarts the process in place, the host equivalent of a
// watchdog reset. Descriptors are close-on-exec, so the bus port and
// storage image are released.
type execResetter struct{}

func (execResetter) Reset(reason string) {
	glog.Infof("restarting: %s", reason)
	glog.Flush()

	exe, err := os.Executable()
	if err != nil {
		glog.Exitf("restart: %v", err)
	}
	err = syscall.Exec(exe, os.Args, os.Environ())
	glog.Exitf("restart: exec %s: %v", exe, err)
}
