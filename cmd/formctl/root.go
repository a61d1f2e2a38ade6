package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"authform-go/internal/biz"
	"authform-go/internal/biz/model"
	confv1 "authform-go/internal/conf/v1"
	"authform-go/internal/data"
	"authform-go/internal/pkg/config"
	logger "authform-go/internal/pkg/log"
	"authform-go/internal/terminal"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8000"

type rootOptions struct {
	configPath string
	baseURL    string
	logLevel   string
	attempts   int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "formctl",
		Short:         "Fill in the sign-up and sign-in forms from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "Path to config file, ignored when missing")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Auth service base URL, overrides the config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&opts.attempts, "attempts", 3, "Maximum submission attempts")

	cmd.AddCommand(
		newFormCmd(opts, biz.SchemaSignup, "Create a new account"),
		newFormCmd(opts, biz.SchemaLogin, "Sign in to an existing account"),
		newStrengthCmd(),
	)
	return cmd
}

func newFormCmd(opts *rootOptions, schema, short string) *cobra.Command {
	return &cobra.Command{
		Use:   schema,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForm(cmd.Context(), cmd.OutOrStdout(), opts, schema)
		},
	}
}

func newStrengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strength [password]",
		Short: "Score a password without submitting anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				driver := terminal.NewSurveyDriver(cmd.OutOrStdout())
				password, err = driver.Password(cmd.Context(), terminal.InputConfig{Message: "Password:"})
				if err != nil {
					return err
				}
			}
			s := biz.PasswordStrength(password)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d/5 %s\n", s.Score, s.Label)
			return err
		},
	}
}

func runForm(ctx context.Context, out io.Writer, opts *rootOptions, schema string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	d, err := data.New(cfg.Auth)
	if err != nil {
		return err
	}
	uc, err := biz.NewFormUseCase(data.NewAuthRepo(d, l), cfg, l)
	if err != nil {
		return err
	}
	form, err := uc.Open(schema)
	if err != nil {
		return err
	}
	defer form.Close()

	runner := terminal.NewRunner(terminal.NewSurveyDriver(out),
		terminal.WithMaxAttempts(opts.attempts),
		terminal.WithLogger(l),
	)
	snap, err := runner.Run(ctx, form)
	if errors.Is(err, terminal.ErrAborted) {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	return printResult(out, snap)
}

// loadConfig 配置文件可选，命令行参数优先
func loadConfig(opts *rootOptions) (*confv1.Bootstrap, error) {
	var (
		cfg *confv1.Bootstrap
		err error
	)
	if _, statErr := os.Stat(opts.configPath); statErr == nil {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Parse(fmt.Sprintf("auth:\n  base_url: %q\n", defaultBaseURL))
	}
	if err != nil {
		return nil, err
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("config %s has no auth section", opts.configPath)
	}

	if opts.baseURL != "" {
		cfg.Auth.BaseURL = opts.baseURL
	}
	cfg.Log = &confv1.Log{Level: opts.logLevel, Development: true}
	return cfg, nil
}

func printResult(out io.Writer, snap model.Snapshot) error {
	var err error
	switch result := snap.Result.(type) {
	case *model.Registration:
		msg := result.Message
		if msg == "" {
			msg = "Registered"
		}
		_, err = fmt.Fprintf(out, "%s (user id %s)\n", msg, result.UserID)
	case *model.Session:
		who := result.Subject
		if who == "" {
			who = "you"
		}
		_, err = fmt.Fprintf(out, "Signed in as %s\n", who)
		if err == nil && !result.ExpiresAt.IsZero() {
			_, err = fmt.Fprintf(out, "Token expires at %s\n", result.ExpiresAt.Local().Format(time.RFC1123))
		}
	default:
		_, err = fmt.Fprintln(out, "Done.")
	}
	return err
}
