package raclui

import (
	"context"
	"errors"
	"io"

	"github.com/t-beigbeder/otvl_racl/packages/joule"
)

type SyncOptions struct {
	BaseOptions
	CreateDirs bool
}

type SyncVars struct {
	baseVars
}

// SyncStartup runs the sending and the receiving sides as two units of
// work connected by a pipe, each with its own session as separate
// processes would have
func SyncStartup(cr *joule.CLIRunner[SyncOptions]) error {
	pr, pw := io.Pipe()
	opts := cr.Opts
	// the sender never modifies its tree
	senderOpts := opts.BaseOptions
	senderOpts.DryRun = false
	_ = cr.AddUow("sender",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			report, err := sendTree(ctx, senderOpts, cr.Args[0], pw, work.UiErrWriter())
			pw.CloseWithError(err)
			return report, err
		})
	_ = cr.AddUow("receiver",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			report, err := receiveTree(ctx, opts.BaseOptions, opts.CreateDirs, cr.Args[1], pr, work.UiErrWriter())
			// unblocks the sender
			pr.CloseWithError(errors.New("receiver ended"))
			if err != nil {
				return report, err
			}
			return report, outputReport(report, opts.BaseOptions, work.UiOutWriter())
		})
	return nil
}

func SyncShutdown(cr *joule.CLIRunner[SyncOptions]) error {
	rErr := cr.GetUow("receiver").GetError()
	sErr := cr.GetUow("sender").GetError()
	if rErr != nil && sErr != nil && errors.Is(rErr, sErr) {
		return rErr
	}
	return errors.Join(rErr, sErr)
}
