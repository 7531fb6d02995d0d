package common

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
)

// FollowJob prints status changes of the orchestrator's job until polling
// ends and returns the final job. Poll errors are reported on errOut and do
// not stop the session.
func FollowJob(ctx context.Context, orch *dashboard.Orchestrator, r *Renderer, errOut io.Writer) (*dashboard.JobView, error) {
	events, unsubscribe := orch.Subscribe(0)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var last domain.JobStatus
		for ev := range events {
			switch ev.Type {
			case dashboard.EventJobStatus:
				if ev.Job.Status != last {
					last = ev.Job.Status
					r.Printf("  %s: %s", ev.Job.ID, last)
				}
			case dashboard.EventError:
				if !errors.Is(ctx.Err(), context.Canceled) {
					fmt.Fprintf(errOut, "  ! %s\n", ev.Message)
				}
			}
		}
	}()

	job, err := orch.Wait(ctx)
	unsubscribe()
	<-done
	return job, err
}

// Describe renders err for the terminal: backend failures become their
// fixed user-facing sentence, everything else prints as is.
func Describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) || client.KindOf(err) != client.KindUnknown {
		return client.UserMessage(err)
	}
	return err.Error()
}
