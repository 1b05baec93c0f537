package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/svgkeeper/internal/client/config"
	"github.com/dmitrijs2005/svgkeeper/internal/client/conn"
	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/protocol"
)

var errNotLoggedIn = errors.New("not logged in")

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Client sends one request and returns its response.
type Client interface {
	Do(ctx context.Context, req conn.Request) (protocol.Response, error)
	Close() error
}

type App struct {
	config   *config.Config
	client   Client
	reader   *bufio.Reader
	out      io.Writer
	log      logging.Logger
	token    string
	userName string
}

// NewApp connects to the configured server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	cl, err := conn.Dial(ctx, c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		client: cl,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		log:    logging.NewJSON(os.Stderr, level),
	}, nil
}

// Run starts the REPL and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	fmt.Fprintln(a.out, "Welcome to svgkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ")"
}

func (a *App) do(ctx context.Context, req conn.Request) (protocol.Response, error) {
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.log.Error(ctx, "request failed", "action", req.Action, "error", err)
		return resp, err
	}
	if resp.Failed() {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

func (a *App) credentials() (string, []byte, error) {
	userName, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) authenticate(ctx context.Context, action protocol.Action) error {
	userName, password, err := a.credentials()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.do(ctx, conn.Request{Action: action, Username: userName, Password: string(password)})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	a.token = resp.SessionToken
	a.userName = resp.Username
	return nil
}

// Register creates an account; the server logs the new account in.
func (a *App) Register(ctx context.Context) error {
	if err := a.authenticate(ctx, protocol.ActionCreateUser); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", a.userName)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	if err := a.authenticate(ctx, protocol.ActionLogin); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.userName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, errNotLoggedIn)
		return errNotLoggedIn
	}
	resp, err := a.do(ctx, conn.Request{Action: protocol.ActionLogout, SessionToken: a.token})
	a.token, a.userName = "", ""
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) List(ctx context.Context) error {
	resp, err := a.do(ctx, conn.Request{Action: protocol.ActionGetFileList, SessionToken: a.token})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(resp.FileList) == 0 {
		fmt.Fprintln(a.out, "(no documents)")
		return nil
	}
	for _, n := range resp.FileList {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

// Show prints a document. An empty name is prompted for.
func (a *App) Show(ctx context.Context, name string) error {
	if name == "" {
		var err error
		if name, err = GetSimpleText(a.reader, "Enter file name", a.out); err != nil {
			return err
		}
	}
	resp, err := a.do(ctx, conn.Request{Action: protocol.ActionGetFileByName, SessionToken: a.token, Name: name})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, resp.Content)
	return nil
}

// Save uploads the file at path as name. Without a path the markup is read
// from the terminal.
func (a *App) Save(ctx context.Context, name, path string) error {
	var content string
	if path != "" {
		b, err := readFile(path)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return err
		}
		content = string(b)
	} else {
		var err error
		if content, err = GetMultiline(a.reader, "Paste SVG markup", a.out); err != nil {
			return err
		}
	}

	resp, err := a.do(ctx, conn.Request{Action: protocol.ActionSaveSVG, SessionToken: a.token, Name: name, Content: content})
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}
