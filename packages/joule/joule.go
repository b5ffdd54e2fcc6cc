// Package joule runs the units of work of a CLI command in goroutines,
// serializing their console output and canceling them on interrupt
package joule

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh/terminal"
)

type UnitOfWork interface {
	GetId() string
	SetInput(interface{})
	GetOutput() interface{}
	GetError() error
	UiOut([]byte)
	UiErr([]byte)
	UiStrOut(string)
	UiStrErr(string)
	UiOutWriter() io.Writer
	UiErrWriter() io.Writer
	UiInReader() io.Reader
}

type sUOW struct {
	id     string
	input  interface{}
	output interface{}
	err    error
	uiIn   io.Reader   // the runner stdin, a single unit of work may read it
	uiOut  chan []byte // worker writes to stdout
	uiErr  chan []byte // worker writes to stderr
	work   func(context.Context, UnitOfWork, interface{}) (interface{}, error)
}

func (uow *sUOW) GetId() string { return uow.id }

func (uow *sUOW) SetInput(input interface{}) { uow.input = input }

func (uow *sUOW) GetOutput() interface{} { return uow.output }

func (uow *sUOW) GetError() error { return uow.err }

func (uow *sUOW) UiOut(bs []byte) { uow.uiOut <- bs }

func (uow *sUOW) UiErr(bs []byte) { uow.uiErr <- bs }

func (uow *sUOW) UiStrOut(s string) { uow.uiOut <- []byte(s) }

func (uow *sUOW) UiStrErr(s string) { uow.uiErr <- []byte(s) }

func (uow *sUOW) UiOutWriter() io.Writer { return newC2w(uow.uiOut) }

func (uow *sUOW) UiErrWriter() io.Writer { return newC2w(uow.uiErr) }

func (uow *sUOW) UiInReader() io.Reader { return uow.uiIn }

type CLIRunner[OT any] struct {
	Ctx        *context.Context
	mux        sync.Mutex
	isRunning  bool
	isStopping bool
	workDelay  time.Duration
	cancel     context.CancelFunc
	workersWg  sync.WaitGroup
	finalizer  func()
	uiOut      chan []byte // workers write to stdout
	uiErr      chan []byte // workers write to stderr
	Opts       OT
	Args       []string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	startup    func(cr *CLIRunner[OT]) error
	shutdown   func(cr *CLIRunner[OT]) error
	uows       []*sUOW
	uowReg     map[string]*sUOW
}

func NewCLIRunner[OT any](
	opts OT, args []string,
	stdin io.Reader, stdout io.Writer, stderr io.Writer,
	startup func(cr *CLIRunner[OT]) error,
	shutdown func(cr *CLIRunner[OT]) error,
) *CLIRunner[OT] {
	cr := &CLIRunner[OT]{
		Opts: opts, Args: args,
		stdin: stdin, stdout: stdout, stderr: stderr,
		startup: startup, shutdown: shutdown}
	cr.finalizer = cr.initAndGetFinalizer()
	return cr
}

func (cr *CLIRunner[OT]) SetWorkDelay(workDelay time.Duration) { cr.workDelay = workDelay }

func (cr *CLIRunner[OT]) AddUow(
	id string,
	work func(context.Context, UnitOfWork, interface{}) (interface{}, error),
) UnitOfWork {
	if cr.isStopping {
		return nil
	}
	cr.mux.Lock()
	defer cr.mux.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	uow := sUOW{
		id: id, work: work,
		uiIn: cr.stdin, uiOut: cr.uiOut, uiErr: cr.uiErr,
	}
	cr.uows = append(cr.uows, &uow)
	if cr.uowReg == nil {
		cr.uowReg = map[string]*sUOW{}
	}
	cr.uowReg[id] = &uow
	cr.workersWg.Add(1)
	if cr.isRunning {
		cr.controlWork(&uow)
	}
	return &uow
}

func (cr *CLIRunner[OT]) GetUow(id string) UnitOfWork { return cr.uowReg[id] }

// StdoutIsTerminal tells if the runner stdout is a console
func (cr *CLIRunner[OT]) StdoutIsTerminal() bool {
	f, ok := cr.stdout.(*os.File)
	return ok && terminal.IsTerminal(int(f.Fd()))
}

func (cr *CLIRunner[OT]) initAndGetFinalizer() func() {
	var ctx context.Context
	ctx, cr.cancel = context.WithCancel(context.Background())
	cr.Ctx = &ctx
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		count := 0
		for sig := range c {
			count += 1
			if count == 1 {
				fmt.Fprintf(os.Stderr, "signal %s received, preparing to exit\n", sig)
				cr.cancel()
				continue
			}
			if count == 2 {
				fmt.Fprintf(os.Stderr, "signal %s received twice, send it again to force exit\n", sig)
				continue
			}
			fmt.Fprintf(os.Stderr, "signal %s received 3 times, exiting now\n", sig)
			os.Exit(1)
		}
	}()
	cr.uiOut = make(chan []byte)
	cr.uiErr = make(chan []byte)
	finalize := func() {
		signal.Stop(c)
		close(c)
		cr.cancel()
	}
	return finalize
}

func (cr *CLIRunner[OT]) controlWork(uow *sUOW) {
	go func() {
		if cr.workDelay != 0 {
			time.Sleep(cr.workDelay)
		}
		uow.output, uow.err = uow.work(*cr.Ctx, uow, uow.input)
		cr.workersWg.Done()
	}()
}

func (cr *CLIRunner[OT]) controlUI(done chan interface{}) (completed chan interface{}) {
	completed = make(chan interface{})
	go func() {
		defer close(completed)
		for {
			select {
			case uiOut := <-cr.uiOut:
				cr.stdout.Write(uiOut)
			case uiErr := <-cr.uiErr:
				cr.stderr.Write(uiErr)
			case <-done:
				return
			}
		}
	}()
	return
}

func (cr *CLIRunner[OT]) Run() error {
	defer cr.finalizer()
	if cr.startup != nil {
		if err := cr.startup(cr); err != nil {
			return err
		}
	}
	stopUi := make(chan interface{})
	uiStopped := cr.controlUI(stopUi)
	cr.mux.Lock()
	for _, uow := range cr.uows {
		cr.controlWork(uow)
	}
	cr.isRunning = true
	cr.mux.Unlock()

	cr.workersWg.Wait()
	cr.isStopping = true
	stopUi <- nil
	<-uiStopped

	if cr.shutdown != nil {
		if err := cr.shutdown(cr); err != nil {
			return err
		}
	}
	return nil
}

func (cr *CLIRunner[OT]) CancelFunc() context.CancelFunc {
	return cr.cancel
}
