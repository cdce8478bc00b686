// Command disco calls methods of any service described by a discovery document.
//
//	disco tree -d drive.json
//	disco call -d drive.json files.list -p q="title contains 'report'"
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/broady/disco"
	"github.com/broady/disco/auth"
	"github.com/broady/disco/discovery"
	"github.com/broady/disco/middleware"
)

type CLI struct {
	Globals

	Call    CallCmd    `cmd:"" help:"Call a method and print the response."`
	Tree    TreeCmd    `cmd:"" help:"Print the resources and methods of a description."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// Globals are flags shared by every command.
type Globals struct {
	Description string        `help:"Path or URL of the discovery document." short:"d" env:"DISCO_DESCRIPTION"`
	RootURL     string        `help:"Override the root URL of the service." name:"root-url" env:"DISCO_ROOT_URL"`
	Token       string        `help:"OAuth2 bearer token." env:"DISCO_TOKEN"`
	APIKey      string        `help:"API key sent as the key query parameter." name:"api-key" env:"DISCO_API_KEY"`
	Timeout     time.Duration `help:"Request timeout." default:"30s"`
	Verbose     bool          `help:"Log requests to stderr." short:"v"`
}

// client loads the description and builds a client for it.
func (g *Globals) client(ctx context.Context, logger *slog.Logger) (*disco.Client, error) {
	if g.Description == "" {
		return nil, fmt.Errorf("no description: use --description or DISCO_DESCRIPTION")
	}
	desc, err := discovery.NewLoader(nil).SetLogger(logger).Load(ctx, g.Description)
	if err != nil {
		return nil, err
	}

	var decorators []disco.Decorator
	if g.Token != "" {
		decorators = append(decorators, &auth.Bearer{Token: g.Token})
	}
	if g.APIKey != "" {
		decorators = append(decorators, &auth.APIKey{Key: g.APIKey})
	}

	opts := []disco.Option{
		disco.WithLogger(logger),
		disco.WithTimeout(g.Timeout),
		disco.WithUserAgent(userAgent()),
		disco.WithTransport(disco.NewHTTPTransport(&http.Client{}, decorators...)),
		disco.WithInterceptor(middleware.RequestID("")),
	}
	if g.RootURL != "" {
		opts = append(opts, disco.WithRootURL(g.RootURL))
	}
	if g.Verbose {
		opts = append(opts, disco.WithInterceptor(middleware.LoggingInterceptor(logger)))
	}
	return disco.New(desc, opts...)
}

func (g *Globals) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintln(out, Version())
	return nil
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("disco"),
		kong.Description("Call REST APIs described by discovery documents."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.BindTo(stdout, (*io.Writer)(nil)),
		kong.Bind(&stderrWriter{stderr}),
	)
}

// stderrWriter distinguishes the diagnostics writer from stdout when binding.
type stderrWriter struct{ io.Writer }

func main() {
	cli := &CLI{}
	parser, err := newParser(cli, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
