package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-actors/actorcore/internal/actor"
	"github.com/go-actors/actorcore/internal/actorutil"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a handful of scenarios against a live ActorSystem",
	RunE:  runDemo,
}

// IntMsg is the payload used by the echo scenario.
type IntMsg struct {
	actor.BaseMessage
	N int
}

// StringMsg is the payload used by the priority-preemption scenario.
type StringMsg struct {
	actor.BaseMessage
	Text string
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if err := runEcho(cmd); err != nil {
		return err
	}
	if err := runPriority(cmd); err != nil {
		return err
	}
	return runMonitor(cmd)
}

// runEcho spawns an actor that increments whatever int it's sent and
// replies, then calls it synchronously from outside any actor via
// actorutil.CallBlocking.
func runEcho(cmd *cobra.Command) error {
	echoAddr, err := system.Spawn(func(a *actor.BlockingActor) {
		a.ReceiveLoop(actor.NewBehavior(
			actor.On(func(x IntMsg) {
				a.ReplyMessage(IntMsg{N: x.N + 1})
			}),
		))
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result := actorutil.CallBlocking[IntMsg](ctx, system, echoAddr, IntMsg{N: 41}, time.Second)
	resp, err := result.Unpack()
	if err != nil {
		return fmt.Errorf("echo scenario: %w", err)
	}
	cmd.Printf("echo: 41 -> %d\n", resp.N)
	return nil
}

// runPriority enqueues a batch of normal-priority messages followed by one
// high-priority message and shows that the high-priority one is handled
// first.
func runPriority(cmd *cobra.Command) error {
	resultCh := make(chan string, 1)
	// The receiver waits until the high-priority message is queued behind
	// the normal batch before it starts receiving.
	release := make(chan struct{})

	addr, err := system.Spawn(func(a *actor.BlockingActor) {
		<-release
		a.Receive(actor.NewBehavior(
			actor.On(func(s StringMsg) {
				resultCh <- s.Text
			}),
		))
	})
	if err != nil {
		return err
	}

	for i := 0; i < 100; i++ {
		system.Tell(addr, StringMsg{Text: "normal"})
	}
	// Deliver the high-priority message through a throwaway sender so it
	// carries the high-priority bit; ActorSystem.Tell always sends
	// normal-priority, matching the contract that only a LocalActor's own
	// Send can stamp priority.
	_, err = system.Spawn(func(a *actor.BlockingActor) {
		a.Send(actor.PriorityHigh, addr, StringMsg{Text: "HI"})
		close(release)
		a.Quit(actor.ExitReasonNormal)
	})
	if err != nil {
		return err
	}

	select {
	case first := <-resultCh:
		cmd.Printf("priority: first delivered message was %q\n", first)
	case <-time.After(time.Second):
		return fmt.Errorf("priority scenario: timed out waiting for delivery")
	}
	return nil
}

// runMonitor spawns a worker and a monitor, exits the worker, and shows
// the monitor observes exactly one DownMsg.
func runMonitor(cmd *cobra.Command) error {
	downCh := make(chan actor.ExitReason, 1)

	workerAddr, err := system.Spawn(func(a *actor.BlockingActor) {
		a.Receive(actor.NewBehavior(
			actor.On(func(s StringMsg) {
				a.Quit(actor.ExitReasonUserShutdown)
			}),
		))
	})
	if err != nil {
		return err
	}

	_, err = system.Spawn(func(a *actor.BlockingActor) {
		a.Monitor(workerAddr)
		a.Receive(actor.NewBehavior(
			actor.On(func(d actor.DownMsg) {
				downCh <- d.Reason
			}),
		))
	})
	if err != nil {
		return err
	}

	system.Tell(workerAddr, StringMsg{Text: "stop"})

	select {
	case reason := <-downCh:
		cmd.Printf("monitor: worker exited with reason %s\n", reason)
	case <-time.After(time.Second):
		return fmt.Errorf("monitor scenario: timed out waiting for DownMsg")
	}
	return nil
}
