package main

import (
	"os"
	"os/signal"
	"syscall"
)

var signals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}

// interruptListener returns a channel that is closed when the process
// receives one of signals.
func interruptListener() <-chan struct{} {
	interrupted := make(chan struct{})

	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, signals...)

	go func() {
		sig := <-interruptChannel
		log.Infof("Received signal (%s). Shutting down...", sig)
		close(interrupted)
	}()

	return interrupted
}
