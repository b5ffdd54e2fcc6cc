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

type SendOptions struct {
	BaseOptions
	Out string
}

type SendVars struct {
	baseVars
}

func SendStartup(cr *joule.CLIRunner[SendOptions]) error {
	if cr.Opts.Out == "" && cr.StdoutIsTerminal() {
		return fmt.Errorf("refusing to write the ACL stream to a terminal, use --out or a redirection")
	}
	_ = cr.AddUow("command",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			(*uiCtxFrom[SendOptions, *SendVars](ctx)).vars = &SendVars{baseVars: baseVars{uow: work}}
			return send(ctx, cr.Args[0])
		})
	return nil
}

func SendShutdown(cr *joule.CLIRunner[SendOptions]) error {
	return cr.GetUow("command").GetError()
}

func sendCtx(ctx context.Context) *uiContext[SendOptions, *SendVars] {
	return uiCtxFrom[SendOptions, *SendVars](ctx)
}

func sendOpts(ctx context.Context) SendOptions { return (*sendCtx(ctx)).opts }

func sendUow(ctx context.Context) joule.UnitOfWork { return getUnitOfWork[SendOptions, *SendVars](ctx) }

// sendTree runs the sending side on root writing to out
func sendTree(ctx context.Context, bos BaseOptions, root string, out io.Writer, errOut io.Writer) (aclsync.Report, error) {
	logger := NewLogger(errOut, bos)
	sess, err := NewSession(bos, racl.BeVerboseFunc(BeVerbose(logger)))
	if err != nil {
		return aclsync.Report{}, err
	}
	report := aclsync.Send(ctx, newAfs(), root, sess, wire.NewWriter(out), aclsync.Options{BeVerbose: BeVerbose(logger)})
	if report.GErr != nil {
		return report, report.GErr
	}
	logger.Info(report.GetStats().String())
	return report, nil
}

func send(ctx context.Context, root string) (aclsync.Report, error) {
	opts := sendOpts(ctx)
	var out io.Writer = sendUow(ctx).UiOutWriter()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return aclsync.Report{}, err
		}
		defer f.Close()
		out = f
	}
	report, err := sendTree(ctx, opts.BaseOptions, root, out, sendUow(ctx).UiErrWriter())
	if err != nil {
		return report, err
	}
	if report.GetStats().ErrNum > 0 {
		return report, fmt.Errorf("some errors encountered")
	}
	return report, nil
}
