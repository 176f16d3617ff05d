package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alecthomas/kong"

	"github.com/hstefan/energy-sensors/internal/auth"
	"github.com/hstefan/energy-sensors/internal/infrastructure/config"
	"github.com/hstefan/energy-sensors/internal/infrastructure/logging"
)

// tokenSubject identifies tokens this tool signs for itself.
const tokenSubject = "sendevents"

// CLI is the top-level command-line interface.
type CLI struct {
	Version kong.VersionFlag `help:"Print version and exit."`

	Timeout     time.Duration `help:"Per-request timeout." default:"10s"`
	Concurrency int           `help:"Number of requests in flight." default:"1" short:"c"`
	LogLevel    string        `help:"Log level." default:"info" enum:"debug,info,warn,error" name:"log-level"`

	Token       string `help:"Bearer token sent with store requests." env:"SENDEVENTS_TOKEN"`
	TokenSecret string `help:"Sign an ingest token with this HS256 secret instead of passing --token." env:"ENERGYSENSORS_JWT_SECRET" name:"token-secret"`
	TokenIssuer string `help:"Issuer for signed tokens." default:"energysensors" name:"token-issuer"`

	Store       StoreCmd       `cmd:"" help:"POST every line of a file to the store URL as text/plain."`
	Distributed DistributedCmd `cmd:"" help:"POST every line to the parse URL, then POST the returned document to the store URL."`
}

// StoreCmd sends raw telegrams straight to the store endpoint.
type StoreCmd struct {
	StoreURL string `arg:"" help:"Event store URL, e.g. http://localhost:8080/api/v1/events." name:"store-url"`
	File     string `arg:"" help:"File with one telegram per line." type:"existingfile"`
}

// Run executes the store command.
func (c *StoreCmd) Run(ctx context.Context, s *Sender) error {
	lines, err := readLines(c.File)
	if err != nil {
		return err
	}
	return s.finish(s.Store(ctx, c.StoreURL, lines))
}

// DistributedCmd parses telegrams on one endpoint and stores the parsed
// documents on another.
type DistributedCmd struct {
	ParseURL string `arg:"" help:"Parse URL, e.g. http://localhost:8080/api/v1/telegrams/parse." name:"parse-url"`
	StoreURL string `arg:"" help:"Event store URL." name:"store-url"`
	File     string `arg:"" help:"File with one telegram per line." type:"existingfile"`
}

// Run executes the distributed command.
func (c *DistributedCmd) Run(ctx context.Context, s *Sender) error {
	lines, err := readLines(c.File)
	if err != nil {
		return err
	}
	return s.finish(s.Distributed(ctx, c.ParseURL, c.StoreURL, lines))
}

// run parses args and executes the selected command. exit is called by
// kong for --help and usage errors.
func run(ctx context.Context, exit func(int), stdout, stderr io.Writer, args ...string) error {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("sendevents"),
		kong.Description("Replay energy sensor telegrams against the HTTP API."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version},
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	sender, err := cli.newSender(stdout, stderr)
	if err != nil {
		return err
	}

	return ktx.Run(sender)
}

// newSender builds the HTTP sender from the global flags.
func (c *CLI) newSender(stdout, stderr io.Writer) (*Sender, error) {
	token := c.Token
	if token == "" && c.TokenSecret != "" {
		var err error
		token, err = auth.GenerateToken(tokenSubject, c.TokenSecret, c.TokenIssuer, 0, auth.ScopeIngest)
		if err != nil {
			return nil, fmt.Errorf("signing token: %w", err)
		}
	}

	log := logging.NewWithWriter(config.LoggingConfig{Level: c.LogLevel, Format: "text"}, version, stderr)

	return &Sender{
		client:      &http.Client{Timeout: c.Timeout},
		token:       token,
		concurrency: max(c.Concurrency, 1),
		logger:      log,
		out:         stdout,
	}, nil
}
