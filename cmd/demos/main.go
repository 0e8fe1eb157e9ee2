package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"demos/internal/app"
	"demos/internal/bizdate"
	"demos/internal/config"
	"demos/internal/dates"
	"demos/internal/domain"
	"demos/internal/engine"
	"demos/internal/repo"
	"demos/internal/rules"
	"demos/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "demos",
	Short: "DEMOS application workflow CLI",
	Long: `demos tracks state demonstration applications through their review phases.
Core concepts:
- Application: a Demonstration, Amendment or Extension moving from Pre-Submission to Approved.
- Phases: Concept, Application Intake, Completeness, Federal Comment, SDG Preparation, Review,
  Approval Package and Approval Summary, each Not Started, Started, Completed or Skipped.
- Dates: milestone dates validated as one set against ordering, offset and time-of-day rules.
  Dates owned by a Completed or Skipped phase are locked.
- Documents: uploads attached to a phase; some are required to complete it.
- Event log: every change, viewable with 'demos events'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DEMOS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "local-user", "actor identifier")
	flags.String("db-driver", "", "database driver (sqlite or postgres), overrides demos.yml")
	flags.String("db-dsn", "", "database DSN, overrides demos.yml")
	flags.String("timezone", "", "business timezone, overrides demos.yml")
	flags.String("log-level", "", "log level, overrides demos.yml")
	for _, name := range []string{"workspace", "json", "actor-id", "db-driver", "db-dsn", "timezone", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(appCmd())
	rootCmd.AddCommand(datesCmd())
	rootCmd.AddCommand(phaseCmd())
	rootCmd.AddCommand(docCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage demos.yml"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default demos.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				return printJSON(rt.Config)
			})
		},
	}
	cfg.AddCommand(initCmd, showCmd)
	return cfg
}

func appCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "app", Short: "Manage applications"}
	cmd.AddCommand(appCreateCmd(), appGetCmd(), appListCmd())
	return cmd
}

func appCreateCmd() *cobra.Command {
	var opts engine.ApplicationCreateOptions
	var appType string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application in Pre-Submission with Concept started",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Type = domain.ApplicationType(appType)
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				agg, err := e.CreateApplication(ctx, opts)
				if err != nil {
					return err
				}
				return printAggregate(agg)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "application id (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "application name")
	cmd.Flags().StringVar(&appType, "type", string(domain.ApplicationDemonstration), "Demonstration, Amendment or Extension")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func appGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an application with its phases, dates and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				agg, err := e.GetApplication(ctx, args[0])
				if err != nil {
					return err
				}
				return printAggregate(agg)
			})
		},
	}
}

func appListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListApplications(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Type", "Status", "Updated"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Type, a.Status, a.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func datesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "dates", Short: "Read and write application dates"}
	cmd.AddCommand(datesGetCmd(), datesSetCmd())
	return cmd
}

func datesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <application-id>",
		Short: "List the dates of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				items, err := rt.Engine.GetApplicationDates(ctx, args[0])
				if err != nil {
					return err
				}
				return printDates(items, rt.Engine.Clock)
			})
		},
	}
}

func datesSetCmd() *cobra.Command {
	var sets, clears []string
	cmd := &cobra.Command{
		Use:   "set <application-id>",
		Short: "Validate and write a batch of date edits",
		Long: `Each --set takes "Date Type=VALUE". VALUE is either YYYY-MM-DD, which is
placed at the time of day the date type requires in the business timezone, or
an RFC 3339 instant used as given. The whole batch is rejected if any date
fails validation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				opts := engine.DatesUpdateOptions{ApplicationID: args[0], ActorID: viper.GetString("actor-id")}
				for _, raw := range sets {
					v, err := parseDateAssignment(raw, rt.Engine.Clock)
					if err != nil {
						return err
					}
					opts.Upserts = append(opts.Upserts, v)
				}
				for _, raw := range clears {
					dt, err := domain.ParseDateType(strings.TrimSpace(raw))
					if err != nil {
						return err
					}
					opts.Deletes = append(opts.Deletes, dt)
				}
				items, err := rt.Engine.ValidateAndUpdateDates(ctx, opts)
				if err != nil {
					return err
				}
				return printDates(items, rt.Engine.Clock)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, `date to write as "Date Type=VALUE" (repeatable)`)
	cmd.Flags().StringArrayVar(&clears, "clear", nil, "date type to delete (repeatable)")
	return cmd
}

func phaseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "phase", Short: "Drive application phases"}
	cmd.AddCommand(phaseCompleteCmd(), phaseSkipCmd(), phaseSetCmd(), phaseChecklistCmd())
	return cmd
}

func phaseCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <application-id> <phase>",
		Short: "Complete a phase and start the next one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := domain.LookupPhase(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				agg, err := e.CompletePhase(ctx, args[0], phase, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printAggregate(agg)
			})
		},
	}
}

func phaseSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <application-id>",
		Short: "Skip the Concept phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				agg, err := e.SkipConceptPhase(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printAggregate(agg)
			})
		},
	}
}

func phaseSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <application-id> <phase> <status>",
		Short: "Override a phase status without checks",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := domain.LookupPhase(args[1])
			if err != nil {
				return err
			}
			status, err := domain.ParsePhaseStatus(args[2])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SetApplicationPhaseStatus(ctx, args[0], phase, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func phaseChecklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checklist <application-id> <phase>",
		Short: "List what is still missing to complete a phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := domain.LookupPhase(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				missing, err := e.CompletionChecklist(ctx, args[0], phase)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(missing)
				}
				if len(missing) == 0 {
					fmt.Printf("%s is ready to complete\n", phase)
					return nil
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Kind", "Missing"})
				for _, m := range missing {
					tw.AppendRow(table.Row{m.Kind, m.Name})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func docCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "doc", Short: "Manage application documents"}
	var opts engine.DocumentAddOptions
	var phase, docType string
	add := &cobra.Command{
		Use:   "add <application-id>",
		Short: "Attach a document to a phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := domain.LookupPhase(phase)
			if err != nil {
				return err
			}
			opts.ApplicationID = args[0]
			opts.Phase = p
			opts.DocumentType = domain.DocumentType(docType)
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				doc, err := e.AddDocument(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(doc)
			})
		},
	}
	add.Flags().StringVar(&phase, "phase", "", "phase name or slug")
	add.Flags().StringVar(&docType, "type", "", "document type")
	add.Flags().StringVar(&opts.Name, "name", "", "file name")
	_ = add.MarkFlagRequired("phase")
	_ = add.MarkFlagRequired("type")

	list := &cobra.Command{
		Use:   "list <application-id>",
		Short: "List application documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				docs, err := e.ListDocuments(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(docs)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Phase", "Type", "Name"})
				for _, d := range docs {
					tw.AppendRow(table.Row{d.ID, d.PhaseName, d.DocumentType, d.Name})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.AddCommand(add, list)
	return cmd
}

func eventsCmd() *cobra.Command {
	var f repo.EventFilter
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListEvents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Application", "Entity", "Actor"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.ApplicationID, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ApplicationID, "application-id", "", "application filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind filter")
	cmd.Flags().IntVar(&f.Limit, "n", 20, "number of events")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys for service callers"}
	var opts engine.APIKeyCreateOptions
	create := &cobra.Command{
		Use:   "create <actor-id>",
		Short: "Issue an API key; the secret is printed once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = args[0]
			opts.CreatedBy = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, secret, err := e.CreateAPIKey(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"key": key, "secret": secret})
				}
				fmt.Printf("Created key %s for %s\nSecret (shown once): %s\n", key.ID, key.ActorID, secret)
				return nil
			})
		},
	}
	create.Flags().StringVar(&opts.Name, "name", "", "label for the key")
	create.Flags().StringSliceVar(&opts.Roles, "role", nil, "role granted to the key (repeatable)")

	var actorFilter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.ListAPIKeys(ctx, actorFilter)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Roles", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, strings.Join(k.Roles, ","), k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&actorFilter, "actor", "", "only keys of this actor")

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.RevokeAPIKey(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	cmd.AddCommand(create, list, revoke)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and webhook dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				if !cmd.Flags().Changed("addr") && rt.Config.Server.Addr != "" {
					addr = rt.Config.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && rt.Config.Server.BasePath != "" {
					basePath = rt.Config.Server.BasePath
				}
				authCfg := server.AuthConfig{
					JWTSecret:        rt.Config.Auth.JWTSecret,
					AllowActorHeader: rt.Config.Auth.AllowActorHeader,
				}
				if secret := viper.GetString("jwt-secret"); secret != "" {
					authCfg.JWTSecret = secret
				}
				if authCfg.JWTSecret == "" && !authCfg.AllowActorHeader {
					return fmt.Errorf("DEMOS_JWT_SECRET or auth.allow_actor_header is required")
				}
				handler, err := server.New(server.Config{
					Engine:   rt.Engine,
					BasePath: basePath,
					Auth:     authCfg,
					Logger:   rt.Logger,
				})
				if err != nil {
					return err
				}
				if d := server.NewWebhookDispatcher(rt.Engine.Repo, rt.Config.Webhooks, rt.Logger); d != nil {
					go d.Run(ctx)
				}

				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				rt.Logger.Info("serving DEMOS API",
					zap.String("addr", addr),
					zap.String("base_path", basePath),
					zap.Int("webhooks", len(rt.Config.Webhooks)))
				fmt.Printf("Serving DEMOS API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func runtimeOptions() app.Options {
	return app.Options{
		Workspace: viper.GetString("workspace"),
		Driver:    viper.GetString("db-driver"),
		DSN:       viper.GetString("db-dsn"),
		Timezone:  viper.GetString("timezone"),
		LogLevel:  viper.GetString("log-level"),
	}
}

func withRuntime(ctx context.Context, fn func(context.Context, *app.Runtime) error) error {
	rt, err := app.Open(ctx, runtimeOptions())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withRuntime(ctx, func(ctx context.Context, rt *app.Runtime) error {
		return fn(ctx, rt.Engine)
	})
}

// parseDateAssignment reads "Date Type=VALUE".
func parseDateAssignment(raw string, clock bizdate.Clock) (dates.Value, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return dates.Value{}, fmt.Errorf("invalid date %q: want \"Date Type=VALUE\"", raw)
	}
	dt, err := domain.ParseDateType(strings.TrimSpace(name))
	if err != nil {
		return dates.Value{}, err
	}
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return dates.Value{DateType: dt, Value: t}, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, clock.Loc)
	if err != nil {
		return dates.Value{}, fmt.Errorf("invalid value for %s: %q is neither YYYY-MM-DD nor RFC 3339", dt, value)
	}
	return dates.Value{DateType: dt, Value: clock.Normalize(day, rules.Dates()[dt].Expected)}, nil
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printAggregate(agg domain.ApplicationAggregate) error {
	if viper.GetBool("json") {
		return printJSON(agg)
	}
	a := agg.Application
	fmt.Printf("%s  %s (%s)  %s\n", a.ID, a.Name, a.Type, a.Status)
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Phase", "Status"})
	for _, p := range agg.Phases {
		tw.AppendRow(table.Row{p.PhaseNumber, p.PhaseName, p.Status})
	}
	tw.Render()
	if len(agg.Documents) > 0 {
		dt := newTable()
		dt.AppendHeader(table.Row{"Phase", "Document", "Name"})
		for _, d := range agg.Documents {
			dt.AppendRow(table.Row{d.PhaseName, d.DocumentType, d.Name})
		}
		dt.Render()
	}
	return nil
}

func printDates(items []domain.ApplicationDate, clock bizdate.Clock) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"Date Type", "Value", "Local"})
	for _, d := range items {
		tw.AppendRow(table.Row{d.DateType, d.Value.UTC().Format(time.RFC3339), d.Value.In(clock.Loc).Format("2006-01-02 15:04:05 MST")})
	}
	tw.Render()
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
