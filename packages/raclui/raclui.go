package raclui

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/t-beigbeder/otvl_racl/packages/idmap"
	"github.com/t-beigbeder/otvl_racl/packages/internal"
	"github.com/t-beigbeder/otvl_racl/packages/joule"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

type BaseOptions struct {
	ConfigFile   string
	DryRun       bool
	NumericIds   bool
	IncRecurse   bool
	Umask        string
	Verbose      bool
	VerboseLevel int
}

func (bos BaseOptions) getBaseOptions() BaseOptions {
	return bos
}

type BaseOptionsEr interface {
	getBaseOptions() BaseOptions
}

type baseVars struct {
	uow joule.UnitOfWork
}

func (bvs baseVars) getUnitOfWork() joule.UnitOfWork {
	return bvs.uow
}

type baseVarsEr interface {
	getUnitOfWork() joule.UnitOfWork
}

type raclUiKey int

const uiCtxKey raclUiKey = 1

type uiContext[OT BaseOptionsEr, VT baseVarsEr] struct {
	opts OT
	args []string
	vars VT
}

// newSystem and newAfs give access to the trees, tests replace them
var (
	newSystem = sysacl.Native
	newAfs    = afero.NewOsFs
)

func CLIRun[OT BaseOptionsEr, VT baseVarsEr](
	cliIn io.Reader, cliOut io.Writer, cliErr io.Writer,
	opts OT, args []string,
	startup func(cr *joule.CLIRunner[OT]) error,
	shutdown func(cr *joule.CLIRunner[OT]) error,
) error {

	cliStartup := func(cr *joule.CLIRunner[OT]) error {
		ctx := context.WithValue(*cr.Ctx, uiCtxKey, &uiContext[OT, VT]{opts: opts, args: args})
		cr.Ctx = &ctx
		return startup(cr)
	}

	cliShutdown := func(cr *joule.CLIRunner[OT]) error {
		return shutdown(cr)
	}

	cr := joule.NewCLIRunner(opts, args, cliIn, cliOut, cliErr, cliStartup, cliShutdown)
	return cr.Run()
}

func uiCtxFrom[OT BaseOptionsEr, VT baseVarsEr](ctx context.Context) *uiContext[OT, VT] {
	uiCtx, _ := ctx.Value(uiCtxKey).(*uiContext[OT, VT])
	return uiCtx
}

func getUnitOfWork[OT BaseOptionsEr, VT baseVarsEr](ctx context.Context) joule.UnitOfWork {
	return (*uiCtxFrom[OT, VT](ctx)).vars.getUnitOfWork()
}

// ExitCode returns the process exit status for the error of a command
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if racl.IsProtocolError(err) {
		return racl.ExitStreamIO
	}
	return 1
}

func CheckUmask(umask string) (uint32, error) {
	if umask == "" {
		return 0o022, nil
	}
	return internal.StrToOctal(umask, 0o777)
}

// NewSession creates the ACL session of one side of a transfer,
// ids are translated through user and group names unless numeric
func NewSession(bos BaseOptions, beVerbose racl.BeVerboseFunc) (*racl.Session, error) {
	umask, err := CheckUmask(bos.Umask)
	if err != nil {
		return nil, err
	}
	var ids idmap.Mapper = idmap.Numeric{}
	if !bos.NumericIds {
		ids = idmap.NewTables(nil)
	}
	return racl.NewSession(newSystem(), ids, racl.Options{
		DryRun:     bos.DryRun,
		IncRecurse: bos.IncRecurse,
		NumericIDs: bos.NumericIds,
		AmRoot:     os.Geteuid() == 0,
		Umask:      umask,
	}, beVerbose), nil
}
