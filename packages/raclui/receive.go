package raclui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/t-beigbeder/otvl_racl/packages/aclsync"
	"github.com/t-beigbeder/otvl_racl/packages/joule"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/wire"
)

type ReceiveOptions struct {
	BaseOptions
	In         string
	CreateDirs bool
}

type ReceiveVars struct {
	baseVars
}

func ReceiveStartup(cr *joule.CLIRunner[ReceiveOptions]) error {
	_ = cr.AddUow("command",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			(*uiCtxFrom[ReceiveOptions, *ReceiveVars](ctx)).vars = &ReceiveVars{baseVars: baseVars{uow: work}}
			return receive(ctx, cr.Args[0])
		})
	return nil
}

func ReceiveShutdown(cr *joule.CLIRunner[ReceiveOptions]) error {
	return cr.GetUow("command").GetError()
}

func receiveCtx(ctx context.Context) *uiContext[ReceiveOptions, *ReceiveVars] {
	return uiCtxFrom[ReceiveOptions, *ReceiveVars](ctx)
}

func receiveOpts(ctx context.Context) ReceiveOptions { return (*receiveCtx(ctx)).opts }

func receiveUow(ctx context.Context) joule.UnitOfWork {
	return getUnitOfWork[ReceiveOptions, *ReceiveVars](ctx)
}

// receiveTree runs the receiving side on root reading from in
func receiveTree(ctx context.Context, bos BaseOptions, createDirs bool, root string, in io.Reader, errOut io.Writer) (aclsync.Report, error) {
	logger := NewLogger(errOut, bos)
	sess, err := NewSession(bos, racl.BeVerboseFunc(BeVerbose(logger)))
	if err != nil {
		return aclsync.Report{}, err
	}
	report := aclsync.Receive(ctx, newAfs(), root, sess, wire.NewReader(in), aclsync.Options{
		CreateDirs: createDirs,
		BeVerbose:  BeVerbose(logger),
	})
	if report.GErr != nil {
		return report, report.GErr
	}
	return report, nil
}

// outputReport displays the entries when evaluating or verbose, then the stats
func outputReport(report aclsync.Report, bos BaseOptions, out io.Writer) error {
	stats := report.GetStats()
	if bos.DryRun || bos.Verbose {
		report.SortByPath().TextOutput(out)
		fmt.Fprintln(out, stats)
	}
	if stats.ErrNum > 0 {
		return fmt.Errorf("some errors encountered")
	}
	return nil
}

func receive(ctx context.Context, root string) (aclsync.Report, error) {
	opts := receiveOpts(ctx)
	in := receiveUow(ctx).UiInReader()
	if opts.In != "" {
		f, err := os.Open(opts.In)
		if err != nil {
			return aclsync.Report{}, err
		}
		defer f.Close()
		in = f
	}
	if in == nil {
		return aclsync.Report{}, fmt.Errorf("no input stream")
	}
	report, err := receiveTree(ctx, opts.BaseOptions, opts.CreateDirs, root, in, receiveUow(ctx).UiErrWriter())
	if err != nil {
		return report, err
	}
	return report, outputReport(report, opts.BaseOptions, receiveUow(ctx).UiOutWriter())
}
