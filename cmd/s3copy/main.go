// Command s3copy replicates the contents of one S3 bucket into another.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/fredngo/s3copy/internal/logging"
	"github.com/fredngo/s3copy/internal/mirror"
	"github.com/fredngo/s3copy/internal/s3client"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitRunFailed   = 1
	ExitInvalidArgs = 2
	ExitAuthFailed  = 3
)

func main() {
	app := &cli.App{
		Name:      "s3copy",
		Usage:     "Replicate the contents of one S3 bucket into another",
		ArgsUsage: "bucket_from bucket_to",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "access",
				Aliases:  []string{"a"},
				Usage:    "AWS access key id",
				EnvVars:  []string{"AWS_ACCESS_KEY_ID"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "secret",
				Aliases:  []string{"s"},
				Usage:    "AWS secret access key",
				EnvVars:  []string{"AWS_SECRET_ACCESS_KEY"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Usage:   "number of copy workers",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:    "clobber",
				Aliases: []string{"c"},
				Usage:   "overwrite objects that already exist in the destination",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "replicate only keys under this prefix",
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region",
				EnvVars: []string{"AWS_REGION"},
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "custom S3 endpoint URL (for S3-compatible services)",
			},
			&cli.BoolFlag{
				Name:  "path-style",
				Usage: "use path-style addressing (required by most S3-compatible services)",
			},
			&cli.BoolFlag{
				Name:  "strict-exists",
				Usage: "fail a key when its existence check errors instead of copying it",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInvalidArgs)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		_ = cli.ShowAppHelp(c)
		return cli.Exit("s3copy: bucket_from and bucket_to are required", ExitInvalidArgs)
	}
	source := c.Args().Get(0)
	dest := c.Args().Get(1)

	log, err := logging.New(c.Bool("debug"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("s3copy: %v", err), ExitRunFailed)
	}
	defer func() { _ = log.Sync() }()

	factory, err := s3client.NewFactory(c.Context, s3client.Config{
		Access:    c.String("access"),
		Secret:    c.String("secret"),
		Region:    c.String("region"),
		Endpoint:  c.String("endpoint"),
		PathStyle: c.Bool("path-style"),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("s3copy: %v", err), ExitAuthFailed)
	}

	if err := factory.Validate(c.Context, source, dest); err != nil {
		return cli.Exit(fmt.Sprintf("s3copy: %v", err), ExitAuthFailed)
	}

	m, err := mirror.New(mirror.Config{
		Source:       source,
		Dest:         dest,
		Prefix:       c.String("prefix"),
		Threads:      c.Int("threads"),
		Clobber:      c.Bool("clobber"),
		StrictExists: c.Bool("strict-exists"),
	}, factory.New, log)
	if err != nil {
		return cli.Exit(fmt.Sprintf("s3copy: %v", err), ExitInvalidArgs)
	}

	if _, err := m.Run(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("s3copy: %v", err), ExitRunFailed)
	}
	return nil
}
