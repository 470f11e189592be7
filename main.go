/*
Imports the playground scene models and, optionally, keeps re-importing
them as they change on disk.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-playground/engine"
	"github.com/spaghettifunk/anima-playground/engine/core"
)

func main() {
	configPath := flag.String("config", "playground.toml", "path to the TOML configuration")
	watch := flag.Bool("watch", false, "re-import models when they change")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("no configuration at '%s', using defaults", *configPath)
		cfg, err = core.DefaultConfig(), nil
	}
	if err != nil {
		core.LogFatal(err.Error())
	}
	if *watch {
		cfg.Assets.Watch = true
	}
	lvl, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		core.LogFatal(err.Error())
	}
	core.SetLogLevel(lvl)

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}
	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		cancel()
	}()

	_, loadErr := e.LoadScene(ctx)
	if loadErr == nil && cfg.Assets.Watch {
		core.LogInfo("watching '%s' for model changes", cfg.Assets.Dir)
		if err := e.Watch(ctx); err != nil {
			core.LogError(err.Error())
		}
	}

	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if loadErr != nil {
		os.Exit(1)
	}
}
