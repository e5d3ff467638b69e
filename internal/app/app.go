// Package app wires the survey bot: configuration, catalog, engine, and the
// Telegram transport.
package app

import (
	"context"
	"fmt"

	corebootstrap "github.com/m3rciful/checkbot/core/bootstrap"
	corecmd "github.com/m3rciful/checkbot/core/cmd"
	coredatabase "github.com/m3rciful/checkbot/core/database"
	coretelegram "github.com/m3rciful/checkbot/core/telegram"
	"github.com/m3rciful/checkbot/core/telegram/commands"
	"github.com/m3rciful/checkbot/core/telegram/router"
	"github.com/m3rciful/checkbot/internal/catalog"
	"github.com/m3rciful/checkbot/internal/session"
	"github.com/m3rciful/checkbot/internal/submit"
	"github.com/m3rciful/checkbot/internal/survey"
)

// App holds the assembled survey bot components.
type App struct {
	cfg     *Config
	catalog *catalog.Catalog
	store   *session.Store
	engine  *survey.Engine
	sink    *submit.Client
}

// Bootstrap initializes logging, loads the question catalog from the
// configured source, and assembles the conversation engine.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	var dbCfg *coredatabase.Config
	if cfg.Catalog.Source == CatalogSourcePostgres {
		dbCfg = &cfg.Database
	}

	boot, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: dbCfg,
	})
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	switch cfg.Catalog.Source {
	case CatalogSourcePostgres:
		cat, err = catalog.LoadPostgres(context.Background(), boot.DB)
		// The catalog is read once; answer records are never stored locally.
		_ = boot.DB.Close()
	default:
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
	}
	if err != nil {
		return nil, err
	}

	store := session.New(cfg.Sessions.IdleTTL())
	sink := submit.New(cfg.Sink.URL, cfg.Sink.Timeout())
	engine := survey.New(cat, store, sink)

	return &App{
		cfg:     cfg,
		catalog: cat,
		store:   store,
		engine:  engine,
		sink:    sink,
	}, nil
}

// TelegramRunOptions builds the registry, middleware chain, and routes for
// the Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Choose a checklist category",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Abandon the current checklist",
	})
	reg.RegisterCommand("/status", commands.Command{
		Handler:     a.handleStatus,
		Description: "Show bot status",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback("cat", a.handleCategory); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback("ans", a.handleAnswer); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetCallbackNotFound(a.handleExpiredPrompt)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{
		UnknownText: a.handleUnknownText,
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			a.store.Close()
			return nil
		},
	}, nil
}
