package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/utils"

	"github.com/spf13/cobra"
)

// sweeper is the garbage collection surface used by the gc commands.
type sweeper interface {
	Sweep(ctx context.Context) bool
	SweepPath(ctx context.Context, fullPath string) bool
	SweepSessions(ctx context.Context) (int64, bool)
}

type opener func(ctx context.Context) (sweeper, func(), error)

var errIncomplete = errors.New("sweep incomplete, see log for details")

func newRootCommand(ctx context.Context, cfg config.Config, open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "filectl",
		Short:        "Maintenance commands for the file store.",
		SilenceUsage: true,
	}
	root.AddCommand(newGCCommand(ctx, open))
	root.AddCommand(newTokenCommand(cfg))
	return root
}

func newGCCommand(ctx context.Context, open opener) *cobra.Command {
	gc := &cobra.Command{
		Use:   "gc",
		Short: "Remove expired temporary data",
	}

	withSweeper := func(fn func(cmd *cobra.Command, s sweeper, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, s, args)
		}
	}

	gc.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove expired chunk folders and archives",
		Args:  cobra.NoArgs,
		RunE: withSweeper(func(cmd *cobra.Command, s sweeper, _ []string) error {
			if !s.Sweep(ctx) {
				return errIncomplete
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sweep complete")
			return nil
		}),
	})
	gc.AddCommand(&cobra.Command{
		Use:   "path [dir]",
		Short: "Empty a directory, keeping the directory itself",
		Args:  cobra.ExactArgs(1),
		RunE: withSweeper(func(cmd *cobra.Command, s sweeper, args []string) error {
			if !s.SweepPath(ctx, args[0]) {
				return errIncomplete
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
			return nil
		}),
	})
	gc.AddCommand(&cobra.Command{
		Use:   "sessions",
		Short: "Delete stale upload sessions",
		Args:  cobra.NoArgs,
		RunE: withSweeper(func(cmd *cobra.Command, s sweeper, _ []string) error {
			n, ok := s.SweepSessions(ctx)
			if !ok {
				return errIncomplete
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d sessions\n", n)
			return nil
		}),
	})
	return gc
}

// newTokenCommand issues a bearer token for local testing.
func newTokenCommand(cfg config.Config) *cobra.Command {
	var (
		userID uint64
		name   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := utils.GenerateToken(cfg.JWTSecret, userID, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&userID, "user", 1, "user id")
	cmd.Flags().StringVar(&name, "name", "dev", "user name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
