package executor

import "context"

// checkInterrupt reports ctx's cancellation as an executor error, wrapping
// the classic Go context errors into the same corerr taxonomy every other
// executor failure uses (spec.md §5: "long-running executions must be
// interruptible between rows").
func checkInterrupt(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errInterrupted(err)
	}
	return nil
}
