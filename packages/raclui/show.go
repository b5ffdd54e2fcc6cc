package raclui

import (
	"context"
	"fmt"
	"strings"

	"github.com/t-beigbeder/otvl_racl/packages/internal"
	"github.com/t-beigbeder/otvl_racl/packages/joule"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/raclfsu"
)

type ShowOptions struct {
	BaseOptions
	Condensed bool // display what is sent: the access ACL without what the mode tells
}

type ShowVars struct {
	baseVars
}

func ShowStartup(cr *joule.CLIRunner[ShowOptions]) error {
	_ = cr.AddUow("command",
		func(ctx context.Context, work joule.UnitOfWork, i interface{}) (interface{}, error) {
			(*uiCtxFrom[ShowOptions, *ShowVars](ctx)).vars = &ShowVars{baseVars: baseVars{uow: work}}
			return nil, show(ctx, cr.Args)
		})
	return nil
}

func ShowShutdown(cr *joule.CLIRunner[ShowOptions]) error {
	return cr.GetUow("command").GetError()
}

func showCtx(ctx context.Context) *uiContext[ShowOptions, *ShowVars] {
	return uiCtxFrom[ShowOptions, *ShowVars](ctx)
}

func showOpts(ctx context.Context) ShowOptions { return (*showCtx(ctx)).opts }

func showUow(ctx context.Context) joule.UnitOfWork { return getUnitOfWork[ShowOptions, *ShowVars](ctx) }

func showOut(ctx context.Context, s string) { showUow(ctx).UiStrOut(s) }

func aclLines(acl *racl.Acl, prefix string) internal.StringSliceEOL {
	var lines internal.StringSliceEOL
	if acl == nil || acl.IsEmpty() {
		return lines
	}
	for _, e := range strings.Split(acl.String(), ",") {
		lines = append(lines, prefix+e)
	}
	return lines
}

// showPath renders the ACLs of path as getfacl does
func showPath(sess *racl.Session, path string, condensed bool) (string, error) {
	fi, err := newAfs().Stat(path)
	if err != nil {
		return "", err
	}
	mode := raclfsu.PosixMode(fi.Mode())
	st, err := sess.GetAcl(path, mode)
	if err != nil {
		return "", err
	}
	lines := internal.StringSliceEOL{"# file: " + path}
	if uid, gid, ok := raclfsu.Owner(fi); ok {
		lines = append(lines, fmt.Sprintf("# owner: %d", uid), fmt.Sprintf("# group: %d", gid))
	}
	lines = append(lines, "# mode: "+internal.ModeToStr(mode))
	if condensed {
		st.Access.StripPerms()
		lines = append(lines, "# condensed")
	}
	lines = append(lines, aclLines(st.Access, "")...)
	lines = append(lines, aclLines(st.Default, "default:")...)
	return lines.String() + "\n", nil
}

func show(ctx context.Context, paths []string) error {
	opts := showOpts(ctx)
	logger := NewLogger(showUow(ctx).UiErrWriter(), opts.BaseOptions)
	sess, err := NewSession(opts.BaseOptions, racl.BeVerboseFunc(BeVerbose(logger)))
	if err != nil {
		return err
	}
	var errNum int
	for i, path := range paths {
		text, err := showPath(sess, path, opts.Condensed)
		if err != nil {
			logger.Error(err)
			errNum++
			continue
		}
		if i > 0 {
			showOut(ctx, "\n")
		}
		showOut(ctx, text)
	}
	if errNum > 0 {
		return fmt.Errorf("some errors encountered")
	}
	return nil
}
