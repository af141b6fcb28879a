package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	imagechat "github.com/menta2k/image-chat"
	"github.com/menta2k/image-chat/internal/config"
	"github.com/menta2k/image-chat/internal/console"
	"github.com/menta2k/image-chat/internal/logging"
	httptransport "github.com/menta2k/image-chat/internal/transport/http"
	"github.com/menta2k/image-chat/pkg/ollama"
	"github.com/menta2k/image-chat/pkg/openai"
	"github.com/menta2k/image-chat/pkg/session"
)

type options struct {
	configPath string
	in         string
	prompt     string
	endpoint   string
	key        string
	backend    string
	model      string
	serve      bool
	addr       string
	console    bool
	html       bool
	sendSize   int
	sendQ      int
	logLevel   string
}

func main() {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/image-chat/config.yaml if present)")
	flag.StringVar(&opts.in, "in", "", "image to analyze once and exit")
	flag.StringVar(&opts.prompt, "prompt", "", "prompt text (default from config)")
	flag.StringVar(&opts.endpoint, "endpoint", "", "endpoint domain, saved to the credential store")
	flag.StringVar(&opts.key, "key", "", "API access key, saved to the credential store")
	flag.StringVar(&opts.backend, "backend", "", "completion backend: openai or ollama")
	flag.StringVar(&opts.model, "model", "", "model name")
	flag.BoolVar(&opts.serve, "serve", false, "serve the web UI on server.addr")
	flag.StringVar(&opts.addr, "addr", "", "listen address for -serve (default from config)")
	flag.BoolVar(&opts.console, "console", false, "start an interactive console (may be combined with -serve)")
	flag.BoolVar(&opts.html, "html", false, "print the answer as sanitized HTML instead of markdown")
	flag.IntVar(&opts.sendSize, "sendsize", -1, "max long side sent to the model (px), 0=original")
	flag.IntVar(&opts.sendQ, "sendq", 0, "JPEG quality for downscaled images (1-100)")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	if err := run(opts); err != nil {
		log.WithError(err).Error("image-chat failed")
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	st, closeStore, err := imagechat.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("failed to close store")
		}
	}()

	sess, err := imagechat.New(cfg, st, session.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := applyCredentials(sess, opts); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.serve || opts.console:
		return interactive(ctx, sess, cfg, opts, logger)
	case opts.in != "":
		return analyzeOnce(ctx, sess, opts)
	default:
		return fmt.Errorf("usage: %s -in image.jpg [-prompt text] | -serve [-addr :8080] | -console", filepath.Base(os.Args[0]))
	}
}

func loadConfig(opts options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.backend != "" {
		cfg.Completion.Backend = opts.backend
		if opts.model == "" && opts.backend == config.BackendOllama && cfg.Completion.Model == openai.DefaultModel {
			cfg.Completion.Model = ollama.DefaultModel
		}
	}
	if opts.model != "" {
		cfg.Completion.Model = opts.model
	}
	if opts.prompt != "" {
		cfg.Completion.Prompt = opts.prompt
	}
	if opts.sendSize >= 0 {
		cfg.Image.MaxDimension = opts.sendSize
	}
	if opts.sendQ > 0 {
		cfg.Image.Quality = opts.sendQ
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCredentials(sess *session.Session, opts options) error {
	if opts.endpoint != "" {
		if err := sess.EditConfig(session.FieldEndpoint, opts.endpoint); err != nil {
			return err
		}
	}
	if opts.key != "" {
		if err := sess.EditConfig(session.FieldAPIKey, opts.key); err != nil {
			return err
		}
	}
	return nil
}

// interactive runs the web server and the console against one session.
// Leaving the console stops the server as well.
func interactive(ctx context.Context, sess *session.Session, cfg *config.Config, opts options, logger log.Interface) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if opts.serve {
		srv, err := httptransport.NewServer(httptransport.Config{
			Addr:    cfg.Server.Addr,
			Session: sess,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if opts.console {
		g.Go(func() error {
			defer cancel()
			return console.New(sess, os.Stdout).Run(gctx)
		})
	}

	err := g.Wait()
	logger.Info("shutting down")
	return err
}

func analyzeOnce(ctx context.Context, sess *session.Session, opts options) error {
	f, err := os.Open(opts.in)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := sess.SelectFile(filepath.Base(opts.in), f); err != nil {
		return err
	}

	res, err := sess.Analyze(ctx)
	if err != nil {
		return err
	}
	if res.Failed() {
		return errors.New(res.Message)
	}

	if opts.html {
		fmt.Println(sess.Snapshot().HTML)
		return nil
	}
	fmt.Println(res.Text)
	return nil
}
