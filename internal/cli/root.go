// Package cli implements the taskboard command-line interface. Every
// command runs as a single acting user given by --as (or TASKBOARD_USER)
// and goes through the service layer, so access rules apply exactly as
// they do for any other caller.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/paths"
	"github.com/mesh-intelligence/taskboard/internal/service"
	"github.com/mesh-intelligence/taskboard/internal/sqlite"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// annotationNoStore marks commands that run without attaching storage.
const annotationNoStore = "taskboard/no-store"

// app is the state shared by one invocation of the command tree.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	// resolvedConfigDir is the directory config.yaml was loaded from.
	resolvedConfigDir string

	cfg   *viper.Viper
	log   *audit.LogData
	store *sqlite.Backend
	svc   *service.Service

	out io.Writer
}

// NewRootCmd builds the "taskboard" command tree.
func NewRootCmd() *cobra.Command {
	return new(app).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Schema-flexible task boards from the command line",
		Long:          "Taskboard manages boards of typed properties, their tasks, views and members.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.taskboard-db)")
	pf.BoolVar(&a.jsonMode, "json", false, "output as JSON")
	pf.String("as", "", "acting user ID (env TASKBOARD_USER)")
	pf.String("email", "", "acting user's email, used to match invitations (env TASKBOARD_EMAIL)")
	pf.String("global-role", "", "acting user's workspace role (env TASKBOARD_GLOBAL_ROLE)")
	pf.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.boardCmd(),
		a.propertyCmd(),
		a.taskCmd(),
		a.viewCmd(),
		a.memberCmd(),
		a.invitationCmd(),
		a.accessCmd(),
	)
	return root
}

// setup loads configuration, opens the log and, unless the command opts
// out, attaches the store and builds the service.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.resolvedConfigDir = configDir
	a.cfg, err = loadConfig(configDir)
	if err != nil {
		return err
	}
	if err := a.bindFlags(cmd); err != nil {
		return err
	}

	build := audit.NewLog().WithLevel(a.cfg.GetString(cfgKeyLogLevel))
	if path := a.cfg.GetString(cfgKeyLogFile); path != "" {
		build = build.FromPath(path)
	} else {
		build = build.FromWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})
	}
	a.log, err = build.Make()
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	if cmd.Annotations[annotationNoStore] == "true" {
		return nil
	}
	return a.attach()
}

// bindFlags lets the actor and log flags override config and environment.
func (a *app) bindFlags(cmd *cobra.Command) error {
	for key, name := range map[string]string{
		cfgKeyUser:       "as",
		cfgKeyEmail:      "email",
		cfgKeyGlobalRole: "global-role",
		cfgKeyLogLevel:   "log-level",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.cfg.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	return nil
}

func (a *app) attach() error {
	settings, err := readSettings(a.cfg)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, settings.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	settings.DataDir = dataDir

	store := sqlite.NewBackend()
	if err := store.Attach(settings.Config); err != nil {
		return fmt.Errorf("attach storage: %w", err)
	}
	a.store = store
	a.svc = service.New(store, service.Options{
		AdminRole:     settings.AdminRole,
		InvitationTTL: settings.InvitationTTL(),
		Audit:         audit.NewLogger(a.log.Logger),
	})
	a.log.Logger.Debug().Str("data_dir", dataDir).Msg("storage attached")
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Detach())
		a.store = nil
	}
	if a.log != nil {
		errs = append(errs, a.log.Close())
		a.log = nil
	}
	return errors.Join(errs...)
}

// actor returns the acting user. Commands that change or read boards
// cannot run anonymously.
func (a *app) actor() (types.Actor, error) {
	id := a.cfg.GetString(cfgKeyUser)
	if id == "" {
		return types.Actor{}, errNoActor
	}
	return types.Actor{
		UserID:     id,
		Email:      a.cfg.GetString(cfgKeyEmail),
		GlobalRole: a.cfg.GetString(cfgKeyGlobalRole),
	}, nil
}

var errNoActor = errors.New("no acting user: pass --as or set TASKBOARD_USER")

// exitCode maps an error to the process exit status. Validation, access
// and lookup failures are the caller's fault; anything else is a system
// error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case types.IsValidation(err), types.IsForbidden(err), types.IsNotFound(err), errors.Is(err, errNoActor), errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}

// run executes the command tree with args and releases the store even
// when a command fails, since cobra skips post-run hooks on error.
func (a *app) run(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.Execute()
	return errors.Join(err, a.teardown())
}

// Execute runs the command tree and exits with the mapped status.
func Execute() {
	a := new(app)
	err := a.run(a.rootCmd(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskboard:", err)
	}
	os.Exit(exitCode(err))
}
