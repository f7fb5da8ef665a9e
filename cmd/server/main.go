package main

import (
	"flag"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron"

	"crashboard/internal/api"
	"crashboard/internal/config"
	"crashboard/internal/engine"
	"crashboard/internal/logging"
	"crashboard/internal/watch"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	humanLog := flag.Bool("human-log", false, "console log output instead of JSON")
	flag.Parse()

	logging.Init(*debug, *humanLog)
	log := logging.L()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())

	// The API goes live immediately; endpoints answer 503 until the first
	// load lands.
	h := api.NewHandler()
	h.RegisterRoutes(e)

	var loadMu sync.Mutex
	reload := func() {
		loadMu.Lock()
		defer loadMu.Unlock()

		table, stats, err := engine.Load(cfg.Dataset.Path, engine.LoadOptions{
			Columns: cfg.Dataset.Columns,
			Sheet:   cfg.Dataset.Sheet,
			Strict:  cfg.Dataset.Strict,
		})
		if err != nil {
			log.Error().Err(err).Str("path", cfg.Dataset.Path).Msg("dataset load failed")
			return
		}
		switch cfg.Dataset.Dedup {
		case "first":
			table = table.Deduplicate(engine.KeepFirst)
		case "last":
			table = table.Deduplicate(engine.KeepLast)
		}
		h.SetTable(table, stats, cfg.Dataset.Path)
		log.Info().Uint64("version", table.Version).Int("rows", table.Len()).Msg("table swapped in")
	}
	go reload()

	if cfg.Reload.Watch {
		monitor, err := watch.New(cfg.Dataset.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("watch")
		}
		defer monitor.Close()
		go func() {
			if err := monitor.Run(reload); err != nil {
				log.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}

	if cfg.Reload.Cron != "" {
		c := cron.New()
		if err := c.AddFunc(cfg.Reload.Cron, reload); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Reload.Cron).Msg("cron")
		}
		c.Start()
		defer c.Stop()
	}

	log.Info().Str("addr", cfg.Server.Addr).Msg("server ready, dataset loading in background")
	if err := e.Start(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
