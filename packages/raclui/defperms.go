package raclui

import (
	"context"
	"fmt"

	"github.com/t-beigbeder/otvl_racl/packages/internal"
	"github.com/t-beigbeder/otvl_racl/packages/joule"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/raclfsu"
)

type DefPermsOptions struct {
	BaseOptions
}

type DefPermsVars struct {
	baseVars
}

func DefPermsStartup(cr *joule.CLIRunner[DefPermsOptions]) error {
	_ = cr.AddUow("command",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			(*uiCtxFrom[DefPermsOptions, *DefPermsVars](ctx)).vars = &DefPermsVars{baseVars: baseVars{uow: work}}
			return nil, defPerms(ctx, cr.Args)
		})
	return nil
}

func DefPermsShutdown(cr *joule.CLIRunner[DefPermsOptions]) error {
	return cr.GetUow("command").GetError()
}

func defPermsCtx(ctx context.Context) *uiContext[DefPermsOptions, *DefPermsVars] {
	return uiCtxFrom[DefPermsOptions, *DefPermsVars](ctx)
}

func defPermsUow(ctx context.Context) joule.UnitOfWork {
	return getUnitOfWork[DefPermsOptions, *DefPermsVars](ctx)
}

// defPerms displays for each directory the permissions of new files and
// subdirectories created in it
func defPerms(ctx context.Context, dirs []string) error {
	opts := (*defPermsCtx(ctx)).opts
	logger := NewLogger(defPermsUow(ctx).UiErrWriter(), opts.BaseOptions)
	sess, err := NewSession(opts.BaseOptions, racl.BeVerboseFunc(BeVerbose(logger)))
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		perms := sess.DefaultPermsForDir(dir)
		file := raclfsu.NewMode(racl.ModeRegular|0o666, perms)
		sub := raclfsu.NewMode(racl.ModeDir|0o777, perms)
		defPermsUow(ctx).UiStrOut(fmt.Sprintf("%s %03o file %s dir %s\n",
			dir, perms, internal.ModeToStr(file), internal.ModeToStr(sub)))
	}
	return nil
}
