package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	"github.com/next-trace/scg-mediator/examples/users"
	"github.com/next-trace/scg-mediator/internal/bootstrap"
	"github.com/next-trace/scg-mediator/mediator"
)

// newUsersRuntime builds a runtime with the users module wired onto it.
func newUsersRuntime(opts *options) (*bootstrap.Runtime, *users.Directory, func(), error) {
	rt, cleanup, err := bootstrap.New(opts.cfg, opts.logger)
	if err != nil {
		return nil, nil, nil, err
	}

	dir := users.NewDirectory()
	if err := users.Wire(rt.Mediator, dir); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("wire users module: %w", err)
	}

	return rt, dir, cleanup, nil
}

func registrations(names []string) []cbus.Command {
	cmds := make([]cbus.Command, len(names))
	for i, name := range names {
		cmds[i] = users.RegisterUserCommand{UserName: name}
	}

	return cmds
}

func newRegisterUserCommand(opts *options) *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "register-user NAME...",
		Short: "Register users and print the events they caused",
		Long: `Publish one RegisterUserCommand per NAME, in order, inside a single session
and list the events recorded by that session in publication order.
The first failing registration stops the rest.

With --export the recorded events are also sent to the configured exporter.

Example:
  mediatorctl register-user Alice Bob --export`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, cleanup, err := newUsersRuntime(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := rt.Mediator.Chain(cmd.Context(), registrations(args)...)

			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%d\t%s\t%s\n", r.Sequence, r.Name, r.ID)
			}

			if err != nil {
				return err
			}

			if export {
				if err := rt.Mediator.ExportRecords(cmd.Context(), records, rt.ExportOptions); err != nil {
					return err
				}

				fmt.Fprintf(out, "exported %d events via %s\n", len(records), opts.cfg.Exporter.Kind)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "Export the recorded events")

	return cmd
}

func newCountUsersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count-users NAME...",
		Short: "Register each name, then count registered users",
		Long: `Register every NAME independently; a rejected name is reported on stderr
and does not stop the others. Then run CountUsersQuery.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, cleanup, err := newUsersRuntime(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			_, err = rt.Mediator.Batch(ctx, registrations(args),
				mediator.WithBatchOnError(func(i int, o mediator.Outcome) {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q: %v\n", args[i], o.Err)
				}),
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if err != nil {
				opts.logger.Debug("count-users registrations failed", "err", err)
			}

			n, err := mediator.Ask[users.CountUsersQuery, int](ctx, rt.Mediator, users.CountUsersQuery{})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered users: %d\n", n)

			return nil
		},
	}
}
