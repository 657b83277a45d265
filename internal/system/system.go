// Package system holds the process-level side effects: the deferred restart
// and the readiness indicator. Neither carries interlock logic.
package system

import (
	"log"
	"os/exec"
	"time"
)

// Scheduler arms a deferred system restart. Scheduling returns immediately;
// the reboot fires on the timer's own goroutine after the delay.
type Scheduler struct {
	reboot func()
}

// NewScheduler creates a Scheduler. A nil reboot func uses the real OS
// reboot; tests inject their own.
func NewScheduler(reboot func()) *Scheduler {
	if reboot == nil {
		reboot = Reboot
	}
	return &Scheduler{reboot: reboot}
}

// Schedule arms the restart timer. The returned timer can be stopped, but
// the daemon never does: once commanded, the restart fires.
func (s *Scheduler) Schedule(delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, s.reboot)
}

// Reboot invokes the OS reboot command. On success the process does not
// survive it; a failure is logged and the process continues.
func Reboot() {
	log.Printf("system is restarting now")
	if err := exec.Command("sudo", "reboot").Run(); err != nil {
		log.Printf("reboot command failed: %v", err)
	}
}
