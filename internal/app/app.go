// Application layer - wires components together behind the CLI commands
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/audit"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/config"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/credentials"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/gmail"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/logger"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/mailer"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/notify"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/platform"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/request"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/watcher"
)

// App coordinates all components with clean dependency injection
type App struct {
	configMgr *config.Manager
	cfg       *config.Config
	log       zerolog.Logger

	fs     afero.Fs
	goos   string
	getenv func(string) string
	stderr io.Writer

	// test seams
	dialer   mailer.Dialer
	notifier notify.Notifier

	configPath string
	logLevel   string
}

// New creates the application with production dependencies
func New() *App {
	return &App{
		configMgr: config.NewManager(),
		cfg:       config.Default(),
		log:       zerolog.Nop(),
		fs:        afero.NewOsFs(),
		goos:      runtime.GOOS,
		getenv:    os.Getenv,
		stderr:    os.Stderr,
	}
}

// BindFlags registers the persistent flags and loads configuration before
// any sub-command runs.
func (a *App) BindFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: config.yaml or config/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load()
	}
}

func (a *App) load() error {
	cfg, err := a.configMgr.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	return nil
}

// Command builders - clean separation of CLI and business logic
func (a *App) RunCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		Aliases: []string{"watch"},
		Short:   "Poll the request file and send each new request",
		Args:    cobra.NoArgs,
		RunE:    a.runWatch,
	}
}

func (a *App) SendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <file>",
		Short: "Send a single request file now",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runSend,
	}
}

func (a *App) AuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth <sender>",
		Short: "Sign in a sender ahead of time and cache the credential",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runAuth,
	}
}

func (a *App) CheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Parse a request file and report problems without sending",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runCheck,
	}
}

func (a *App) ConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  a.runConfig,
	}
}

// watchDir resolves the directory holding the request file and the
// separator used to build paths inside it.
func (a *App) watchDir() (string, string, error) {
	if a.cfg.Watch.Dir != "" {
		return a.cfg.Watch.Dir, string(filepath.Separator), nil
	}

	p, err := platform.Resolve(a.goos)
	if err != nil {
		return "", "", err
	}
	dir, err := p.WatchDir(a.getenv)
	if err != nil {
		return "", "", err
	}
	return dir, p.Separator, nil
}

// watchPath returns the request file along with its directory and separator.
func (a *App) watchPath() (path, dir, sep string, err error) {
	dir, sep, err = a.watchDir()
	if err != nil {
		return "", "", "", err
	}
	return dir + sep + a.cfg.Watch.FileName, dir, sep, nil
}

func (a *App) newNotifier() notify.Notifier {
	if a.notifier != nil {
		return a.notifier
	}
	return notify.NewConsole(os.Stdout, a.cfg.Notify.Duration, logger.WithComponent(a.log, "notify"))
}

// credentialManager builds the token cache and interactive authorizer.
func (a *App) credentialManager() (*credentials.Manager, *credentials.LocalServerAuthorizer, error) {
	log := logger.WithComponent(a.log, "credentials")
	authorizer, err := credentials.NewLocalServerAuthorizer(a.fs, a.cfg.Gmail.CredentialsFile, a.cfg.Gmail.AuthTimeout, log)
	if err != nil {
		return nil, nil, err
	}
	cache := credentials.NewCache(a.fs, a.cfg.Gmail.TokenDir, a.cfg.Gmail.TokenRetention, log)
	return credentials.NewManager(cache, authorizer, log), authorizer, nil
}

func (a *App) newDialer() (mailer.Dialer, error) {
	if a.dialer != nil {
		return a.dialer, nil
	}
	mgr, authorizer, err := a.credentialManager()
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(a.cfg.Gmail, mgr, authorizer.Config(), logger.WithComponent(a.log, "gmail")), nil
}

func (a *App) newService(notifier notify.Notifier, auditDir, sep string) (*mailer.Service, error) {
	dialer, err := a.newDialer()
	if err != nil {
		return nil, err
	}
	writer := audit.NewWriter(a.fs, auditDir, sep)
	return mailer.NewService(a.fs, dialer, notifier, writer, logger.WithComponent(a.log, "mailer")), nil
}

// Business logic handlers - clean and focused
func (a *App) runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path, dir, sep, err := a.watchPath()
	if err != nil {
		return err
	}

	notifier := a.newNotifier()
	svc, err := a.newService(notifier, dir, sep)
	if err != nil {
		return err
	}

	log := logger.WithComponent(a.log, "watcher")
	var opts []watcher.Option
	if a.cfg.Watch.Notify {
		waiter, err := watcher.NewNotifyWaiter(path, log)
		if err != nil {
			log.Warn().Err(err).Msg("filesystem notifications unavailable, polling only")
		} else {
			defer waiter.Close()
			opts = append(opts, watcher.WithWaiter(waiter))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "👁️  Watching %s every %s\n", path, a.cfg.Watch.Interval)
	w := watcher.New(a.fs, path, a.cfg.Watch.Interval, notifier, log, opts...)
	err = w.Run(ctx, func(ctx context.Context, path string) error {
		_, err := svc.Process(ctx, path)
		return err
	})
	return ignoreInterrupt(ctx, err)
}

func (a *App) runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	svc, err := a.newService(a.newNotifier(), filepath.Dir(path), string(filepath.Separator))
	if err != nil {
		return err
	}

	outcome, err := svc.Process(ctx, path)
	if err != nil {
		return ignoreInterrupt(ctx, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📨 %s: %s\n", path, outcome)
	return nil
}

func (a *App) runAuth(cmd *cobra.Command, args []string) error {
	mgr, _, err := a.credentialManager()
	if err != nil {
		return err
	}

	tok, err := mgr.Token(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🔐 %s signed in (token valid until %s)\n", args[0], tok.Expiry.Format("Jan 2 15:04"))
	return nil
}

func (a *App) runCheck(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		var err error
		if path, _, _, err = a.watchPath(); err != nil {
			return err
		}
	}

	req, err := request.ParseFile(a.fs, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📧 From:       %s\n", req.Sender)
	fmt.Fprintf(out, "   To:         %s\n", req.Recipient)
	fmt.Fprintf(out, "   Subject:    %s\n", req.Subject)
	if req.HasAttachment() {
		if exists, _ := afero.Exists(a.fs, req.Attachment); !exists {
			fmt.Fprintf(out, "   Attachment: %s (missing, will be skipped)\n", req.Attachment)
		} else {
			fmt.Fprintf(out, "   Attachment: %s\n", req.Attachment)
		}
	}
	fmt.Fprintf(out, "   Body:       %d characters\n", len([]rune(req.Body)))

	warnings := req.Validate()
	for _, w := range warnings {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
	if len(warnings) == 0 {
		fmt.Fprintln(out, "✅ Request looks good")
	}
	return nil
}

func (a *App) runConfig(cmd *cobra.Command, args []string) error {
	data, err := a.cfg.YAML()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s", data)
	if path, _, _, err := a.watchPath(); err != nil {
		fmt.Fprintf(out, "# watch file: unresolved (%v)\n", err)
	} else {
		fmt.Fprintf(out, "# watch file: %s\n", path)
	}
	return nil
}

// ignoreInterrupt turns errors raised while shutting down into a clean exit.
func ignoreInterrupt(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
