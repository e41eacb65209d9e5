// Package rufus is an in-process job scheduler. It triggers user-supplied
// callables at absolute instants (At), after delays (In), at fixed
// intervals (Every) or on cron expressions (Cron), each firing on its own
// goroutine unless marked blocking.
//
//	s := rufus.NewScheduler(rufus.Options{})
//	s.Start()
//	defer s.Shutdown(rufus.ShutdownWait)
//
//	s.Every("10s", func(ctx context.Context, job *rufus.Job) error {
//		return pollUpstream(ctx)
//	})
//	s.Cron("0 9 * * mon-fri Europe/Sofia", sendReport)
//
// Schedules are in-memory only; precision is bounded by the scheduler's
// tick frequency (300 ms by default).
package rufus
