// padlink - LAN remote pointer relay
// Turns a phone or tablet browser into a mouse for this computer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"padlink/internal/access"
	"padlink/internal/api"
	"padlink/internal/autostart"
	"padlink/internal/config"
	"padlink/internal/embedded"
	"padlink/internal/input"
	"padlink/internal/logging"
	"padlink/internal/network"
	"padlink/internal/osutils"
	"padlink/internal/protocol"
	"padlink/internal/tray"
)

var version = "0.1.0"

type options struct {
	configPath  string
	host        string
	port        int
	dryRun      bool
	noTray      bool
	logLevel    string
	assetsDir   string
	showVersion bool
	printURL    bool

	flags *pflag.FlagSet
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "send" {
		if err := runSend(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "padlink send: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "padlink: %v\n", err)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("padlink version %s\n", version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "padlink: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("padlink", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default: per-user config dir)")
	fs.StringVar(&opts.host, "host", "", "bind address, overrides server.host")
	fs.IntVarP(&opts.port, "port", "p", 0, "listen port, overrides server.port")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "log pointer events instead of injecting them")
	fs.BoolVar(&opts.noTray, "no-tray", false, "run without the system tray icon")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&opts.assetsDir, "assets-dir", "", "serve the client page from this directory")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "show version")
	fs.BoolVar(&opts.printURL, "print-url", false, "print the client URL and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  padlink [flags]\n  padlink send [--target host:port] move X Y | click left|right|middle\n\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = fs
	return opts, nil
}

// applyOverrides copies explicitly set flags onto cfg
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.flags == nil {
		return
	}
	if opts.flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if opts.flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if opts.flags.Changed("dry-run") {
		cfg.Input.DryRun = opts.dryRun
	}
	if opts.flags.Changed("no-tray") && opts.noTray {
		cfg.General.ShowTray = false
	}
	if opts.flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}

func run(opts *options) error {
	cfgMgr, err := config.NewManager(opts.configPath)
	if err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}
	if err := cfgMgr.Load(); err != nil {
		return fmt.Errorf("load config %s: %w", cfgMgr.Path(), err)
	}

	// Overrides apply to this run only and are never saved
	cfg := cfgMgr.Get()
	applyOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	serviceURL := network.ServiceURL(network.AdvertisedHost(cfg.Server.Host), cfg.Server.Port)
	if opts.printURL {
		fmt.Println(serviceURL)
		return nil
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("padlink starting",
		zap.String("version", version),
		zap.String("config", cfgMgr.Path()),
		zap.String("url", serviceURL))

	if cfg.General.ManageFirewall {
		go func() {
			if err := osutils.EnsureFirewallRule(cfg.Server.Port, logger.Named("firewall")); err != nil {
				logger.Warn("firewall rule not applied", zap.Error(err))
			}
		}()
	}

	if err := autostart.Apply(cfg.General.StartOnBoot); err != nil {
		logger.Warn("failed to apply start on login setting", zap.Error(err))
	}

	pointer, err := newPointer(cfg.Input.DryRun, logger)
	if err != nil {
		return err
	}

	filter, err := access.NewFilter(cfg.Access.AllowedNetworks, logger)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Options{
		Addr:          net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		ServiceURL:    serviceURL,
		MaxFrameBytes: cfg.Server.MaxFrameBytes,
		Filter:        filter,
		Dispatcher:    input.NewDispatcher(pointer, logger),
		Assets:        embedded.Handler(opts.assetsDir),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	// A listener that failed already has cancelled gctx
	if cfg.General.ShowTray && gctx.Err() == nil {
		t := newTray(cfgMgr, serviceURL, cancel, logger)
		g.Go(func() error {
			<-gctx.Done()
			t.Stop()
			return nil
		})
		// Blocks on the main goroutine until Quit or shutdown
		t.Run(nil)
		cancel()
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("padlink stopped")
	return nil
}

func newPointer(dryRun bool, logger *zap.Logger) (input.Pointer, error) {
	if dryRun {
		logger.Info("dry run: pointer events are logged, not injected")
		return input.NewLogPointer(logger), nil
	}
	injector, err := input.NewInjector()
	if err != nil {
		return nil, fmt.Errorf("pointer backend unavailable: %w (run with --dry-run to test without injection)", err)
	}
	return injector, nil
}

func newTray(cfgMgr *config.Manager, serviceURL string, quit func(), logger *zap.Logger) *tray.Tray {
	logger = logger.Named("tray")
	t := tray.New("padlink", "padlink - "+serviceURL)

	open := func(url string) func() {
		return func() {
			if err := osutils.OpenBrowser(url); err != nil {
				logger.Warn("failed to open browser", zap.Error(err))
			}
		}
	}

	t.AddMenuItem("Show connection QR", open(serviceURL+"qr"))
	t.AddMenuItem("Open client page", open(serviceURL))
	t.AddSeparator()
	t.AddCheckbox("Start on login", autostart.IsEnabled(), func(checked bool) error {
		if err := autostart.Apply(checked); err != nil {
			logger.Warn("failed to change start on login", zap.Bool("enabled", checked), zap.Error(err))
			return err
		}
		cfgMgr.Update(func(c *config.Config) {
			c.General.StartOnBoot = checked
		})
		if err := cfgMgr.Save(); err != nil {
			logger.Warn("failed to save config", zap.Error(err))
		}
		return nil
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", quit)

	return t
}

func runSend(args []string) error {
	fs := pflag.NewFlagSet("padlink send", pflag.ContinueOnError)
	target := fs.StringP("target", "t", "127.0.0.1:3030", "relay address host:port")
	timeout := fs.Duration("timeout", 5*time.Second, "connect timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  padlink send [flags] move X Y\n  padlink send [flags] click left|right|middle\n\nUse -- before negative coordinates.\n\nFlags:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	action, err := parseAction(fs.Args())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := network.Dial(ctx, *target)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Send(action)
}

var errUsage = errors.New("usage: padlink send [--target host:port] move X Y | click left|right|middle")

func parseAction(args []string) (protocol.Action, error) {
	if len(args) == 0 {
		return nil, errUsage
	}

	switch args[0] {
	case "move":
		if len(args) != 3 {
			return nil, errUsage
		}
		x, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("x: %w", err)
		}
		y, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("y: %w", err)
		}
		return protocol.Move{X: int32(x), Y: int32(y)}, nil
	case "click":
		if len(args) != 2 {
			return nil, errUsage
		}
		button, err := protocol.ParseButton(args[1])
		if err != nil {
			return nil, err
		}
		return protocol.Click{Button: button}, nil
	}
	return nil, errUsage
}
