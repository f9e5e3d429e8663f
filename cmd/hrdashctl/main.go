package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/hrdash/cmd/hrdashctl/cli"
	"github.com/odyssey-erp/hrdash/internal/app"
	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
	"github.com/odyssey-erp/hrdash/internal/dashboard/export"
)

type identityFlags struct {
	userID     int64
	employeeID int64
	name       string
	manager    bool
}

func (f *identityFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.userID, "user", 0, "user id to act as")
	cmd.Flags().Int64Var(&f.employeeID, "employee", 0, "employee id linked to the user")
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().BoolVar(&f.manager, "manager", false, "act as an HR manager")
}

func (f *identityFlags) identity() auth.Identity {
	return auth.Identity{UserID: f.userID, EmployeeID: f.employeeID, Name: f.name, Manager: f.manager}
}

type env struct {
	cfg    *app.Config
	logger *slog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{cfg: cfg, logger: app.NewLogger(cfg)}, nil
}

// asIdentity places id on ctx, with a signed token when the procedures are
// served remotely.
func (e *env) asIdentity(ctx context.Context, id auth.Identity) (context.Context, error) {
	ctx = auth.WithIdentity(ctx, id)
	if e.cfg.InProcessRPC() {
		return ctx, nil
	}
	token, err := auth.NewService(e.cfg.JWTSecret, e.cfg.JWTTTL).Issue(id)
	if err != nil {
		return nil, err
	}
	return auth.WithToken(ctx, token), nil
}

// linkEmployee creates the employee of a user issued a token without one.
func (e *env) linkEmployee(ctx context.Context, id auth.Identity) (auth.Identity, error) {
	if id.UserID <= 0 || id.EmployeeID != 0 {
		return id, nil
	}
	aggregates, err := app.OpenAggregates(ctx, e.cfg, e.logger)
	if err != nil {
		return id, err
	}
	defer aggregates.Close()
	ctx, err = e.asIdentity(ctx, id)
	if err != nil {
		return id, err
	}
	id, linked, err := cli.LinkEmployee(ctx, aggregates.Service, id)
	if err != nil {
		return id, err
	}
	if linked.Created {
		e.logger.Info("employee created for user", slog.Int64("user_id", id.UserID), slog.Int64("employee_id", linked.ID))
	}
	return id, nil
}

func (e *env) render(ctx context.Context, id auth.Identity) (cli.RenderResult, error) {
	aggregates, err := app.OpenAggregates(ctx, e.cfg, e.logger)
	if err != nil {
		return cli.RenderResult{}, err
	}
	defer aggregates.Close()

	overrides, err := app.LoadDashboardOverrides(e.cfg.DashboardConfig)
	if err != nil {
		return cli.RenderResult{}, err
	}
	ctx, err = e.asIdentity(ctx, id)
	if err != nil {
		return cli.RenderResult{}, err
	}
	return cli.Render(ctx, e.logger, aggregates.Service, dashboard.Options{Overrides: overrides})
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrdashctl",
		Short:         "Operate the HR dashboard service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newExportCmd(), newJobsCmd(), newBumpCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var who identityFlags
	var width int
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the dashboard charts in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			result, err := e.render(cmd.Context(), who.identity())
			if err != nil {
				return err
			}
			return cli.PrintTerminal(cmd.OutOrStdout(), result, width)
		},
	}
	who.bind(cmd)
	cmd.Flags().IntVar(&width, "width", 0, "plot width in columns, 0 fits the terminal")
	return cmd
}

func newExportCmd() *cobra.Command {
	var who identityFlags
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard charts to a csv, xlsx or pdf file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			result, err := e.render(cmd.Context(), who.identity())
			if err != nil {
				return err
			}
			data, err := encode(strings.ToLower(filepath.Ext(output)), who.identity().Name, result)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d charts to %s\n", len(result.Specs), output)
			return nil
		},
	}
	who.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (.csv, .xlsx or .pdf)")
	return cmd
}

func encode(ext, employee string, result cli.RenderResult) ([]byte, error) {
	switch ext {
	case ".csv":
		var b strings.Builder
		if err := export.WriteCSV(&b, result.Specs); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	case ".xlsx":
		return export.XLSX(result.Specs)
	case ".pdf":
		return export.PDF(export.Report{Title: "HR Dashboard", Employee: employee, GeneratedAt: time.Now(), Charts: result.Specs})
	default:
		return nil, fmt.Errorf("unsupported export format %q", ext)
	}
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Inspect and trigger background jobs"}
	cmd.AddCommand(&cobra.Command{
		Use:       "trigger [warmup|bump]",
		Short:     "Enqueue a dashboard job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"warmup", "bump"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			jobsCLI := cli.NewJobsCLI(e.cfg.RedisAddr)
			defer jobsCLI.Close()
			info, err := jobsCLI.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the default queue state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			jobsCLI := cli.NewJobsCLI(e.cfg.RedisAddr)
			defer jobsCLI.Close()
			stats, err := jobsCLI.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			scheduled, err := jobsCLI.ListScheduled(cmd.Context(), 10)
			if err != nil {
				return err
			}
			for _, task := range scheduled {
				fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s at %s\n", task.Type, task.NextProcessAt.Format(time.RFC3339))
			}
			return nil
		},
	})
	return cmd
}

func newBumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bump",
		Short: "Invalidate the aggregate cache immediately",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			aggregates, err := app.OpenAggregates(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer aggregates.Close()
			version, err := aggregates.Service.Bump(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache version %d\n", version)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the aggregate store schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			aggregates, err := app.OpenAggregates(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer aggregates.Close()
			applied, err := aggregates.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", version)
			}
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var who identityFlags
	var ttl time.Duration
	var noEmployee bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the dashboard and RPC endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = e.cfg.JWTTTL
			}
			id := who.identity()
			if !noEmployee {
				if id, err = e.linkEmployee(cmd.Context(), id); err != nil {
					return err
				}
			}
			token, err := auth.NewService(e.cfg.JWTSecret, ttl).Issue(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	who.bind(cmd)
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to JWT_TTL")
	cmd.Flags().BoolVar(&noEmployee, "no-employee", false, "do not create an employee for a user without one")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "hrdashctl:", err)
		stop()
		os.Exit(1)
	}
}
