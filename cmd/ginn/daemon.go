package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/ginn/internal/actionsink"
	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/config"
	"github.com/1broseidon/ginn/internal/daemon"
	"github.com/1broseidon/ginn/internal/gesture"
	"github.com/1broseidon/ginn/internal/ipc"
	"github.com/1broseidon/ginn/internal/keymap"
	"github.com/1broseidon/ginn/internal/runtimepath"
	"github.com/1broseidon/ginn/internal/x11"
	godaemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
)

var (
	daemonWishes []string
	daemonDetach bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the gesture daemon",
	Long: `Run the gesture daemon in the foreground, or in the background with --detach.

Wish files come from --wishes, $GINN_WISHES, wish_sources in the config file,
or the XDG search path, in that order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}

		if daemonDetach {
			ctx, err := detachContext()
			if err != nil {
				return err
			}
			child, err := ctx.Reborn()
			if err != nil {
				return fmt.Errorf("failed to daemonize: %w", err)
			}
			if child != nil {
				fmt.Printf("ginn daemon started (pid %d, log %s)\n", child.Pid, ctx.LogFileName)
				return nil
			}
			defer ctx.Release()
		}

		return runDaemon(cmd.Context(), res)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringSliceVar(&daemonWishes, "wishes", nil, "wish files to load instead of the configured ones")
	daemonCmd.Flags().BoolVar(&daemonDetach, "detach", false, "run in the background")
}

func detachContext() (*godaemon.Context, error) {
	pidPath, err := runtimepath.PIDPath()
	if err != nil {
		return nil, err
	}
	logPath, err := runtimepath.LogPath()
	if err != nil {
		return nil, err
	}
	return &godaemon.Context{
		PidFileName: pidPath,
		PidFilePerm: 0644,
		LogFileName: logPath,
		LogFilePerm: 0640,
		WorkDir:     "/",
		Umask:       027,
		Args:        os.Args,
	}, nil
}

func runDaemon(parent context.Context, res *config.LoadResult) error {
	cfg := res.Config
	logger := newLogger(os.Stderr, cfg)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	} else {
		logger.Info("no configuration file, using defaults")
	}
	if godaemon.WasReborn() {
		logger.Info("running detached", "pid", os.Getpid())
	}

	sources := daemon.NewFileSources(func() []string { return cfg.WishFiles(daemonWishes) }, logger)
	if len(sources.Paths()) == 0 {
		return fmt.Errorf("%w: set wish_sources or $GINN_WISHES, or create ~/.config/ginn/wishes.xml", daemon.ErrNoWishSources)
	}

	conn, err := x11.NewConnection()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()
	go conn.EventLoop()
	defer conn.Quit()

	keys, err := buildKeymap(cfg, conn, logger)
	if err != nil {
		return err
	}
	gestures, err := buildGestures(cfg, conn, logger)
	if err != nil {
		return err
	}
	sink, err := buildSink(cfg, conn, logger)
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Options{
		Keymap:   keys,
		Apps:     apps.NewX11Registry(conn, logger),
		Gestures: gestures,
		Actions:  sink,
		Sources:  sources,
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	ipcServer, err := ipc.NewServer(d, logger)
	if err != nil {
		return err
	}
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Stop()

	if err := d.Start(); err != nil {
		return errors.Join(err, d.Shutdown())
	}

	if cfg.ReconcileInterval > 0 {
		reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: cfg.ReconcileInterval,
			Logger:   logger,
		}, d.Reconcile)
		go reconciler.Run(ctx)
	}

	if cfg.WatchWishSources {
		dirs := daemon.WatchDirs(sources.Paths(), config.WishDirs()...)
		watcher := daemon.NewSourceWatcher(dirs, d.RequestReload, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("wish source watcher stopped", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading wishes")
					d.RequestReload()
				default:
					logger.Info("shutting down ginn daemon", "signal", sig.String())
					cancel()
					return
				}
			}
		}
	}()

	runErr := d.Run(ctx)
	cancel()
	return errors.Join(runErr, d.Shutdown())
}

func buildKeymap(cfg *config.Config, conn *x11.Connection, logger *slog.Logger) (keymap.Keymap, error) {
	switch cfg.Keymap {
	case config.KeymapX11:
		return keymap.NewX11(conn), nil
	case config.KeymapXmodmap:
		return keymap.NewXmodmap(logger), nil
	default:
		return nil, fmt.Errorf("unknown keymap %q", cfg.Keymap)
	}
}

func buildGestures(cfg *config.Config, conn *x11.Connection, logger *slog.Logger) (gesture.Channel, error) {
	switch cfg.GestureSource {
	case config.GestureLibinput:
		resolve := func() apps.WindowID {
			win, err := conn.GetActiveWindow()
			if err != nil {
				logger.Debug("no active window for gesture", "error", err)
				return 0
			}
			return apps.WindowID(win)
		}
		return gesture.NewLibinput(gesture.LibinputConfig{
			Command: cfg.Libinput.Command,
			Device:  cfg.Libinput.Device,
		}, resolve, logger), nil
	case config.GestureDBus:
		return gesture.NewDBus(gesture.DBusConfig{
			Interface: cfg.DBus.Interface,
			Path:      cfg.DBus.Path,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown gesture source %q", cfg.GestureSource)
	}
}

func buildSink(cfg *config.Config, conn *x11.Connection, logger *slog.Logger) (actionsink.Sink, error) {
	switch cfg.ActionSink {
	case config.SinkXTest:
		return actionsink.NewXTest(conn, cfg.ActionQueueSize, logger), nil
	case config.SinkLog:
		return actionsink.NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown action sink %q", cfg.ActionSink)
	}
}
