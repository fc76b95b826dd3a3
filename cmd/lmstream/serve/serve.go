package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/cmd/lmstream/profileflag"
	"github.com/papercomputeco/lmstream/pkg/config"
	"github.com/papercomputeco/lmstream/pkg/logger"
	"github.com/papercomputeco/lmstream/proxy"
)

const serveLongDesc string = `Run the streaming gateway.

Clients POST provider independent requests to /v1/stream and receive the
normalized stream as NDJSON lines. Profiles come from the config file,
which is reloaded when it changes.

Endpoints:
  POST /v1/stream       stream a completion
  POST /v1/embeddings   embed texts
  GET  /v1/providers    list providers and profiles
  GET  /health          health check

Examples:
  lmstream serve
  lmstream serve --listen :9090 --config ./lmstream.toml --debug`

const serveShortDesc string = "Run the NDJSON streaming gateway"

type serveCommander struct {
	configPath string
	listen     string
	logFormat  string
	debug      bool
	noWatch    bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file (default ~/.lmstream/config.toml)")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, else :8080)")
	cmd.Flags().StringVar(&cmder.logFormat, "log-format", "console", "Log format: console or json")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Do not reload the config file on changes")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	format, err := logger.ParseFormat(c.logFormat)
	if err != nil {
		return err
	}

	path, err := profileflag.ResolveConfigPath(c.configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, format, c.debug || cfg.Server.Debug)
	defer log.Sync()

	listen := c.listenAddr(cfg)
	log.Info("lmstream gateway starting",
		zap.String("listen", listen),
		zap.String("config", path),
		zap.Bool("watch", !c.noWatch),
	)

	p, err := proxy.New(proxy.Config{ListenAddr: listen, Profiles: cfg}, log)
	if err != nil {
		return fmt.Errorf("could not create gateway: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.noWatch {
		go func() {
			if err := config.Watch(ctx, path, log, p.SetProfiles); err != nil {
				log.Warn("config reload disabled", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down gateway")
		if err := p.Close(); err != nil {
			log.Error("gateway shutdown failed", zap.Error(err))
		}
	}()

	if err := p.Run(); err != nil {
		return fmt.Errorf("gateway server failed: %w", err)
	}
	return nil
}

// listenAddr prefers the flag, then the config file.
func (c *serveCommander) listenAddr(cfg *config.Config) string {
	if c.listen != "" {
		return c.listen
	}
	if cfg.Server.Listen != "" {
		return cfg.Server.Listen
	}
	return ":8080"
}
