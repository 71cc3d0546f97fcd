package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/api"
	"github.com/SoarinFerret/TabWarden/internal/config"
	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/engine"
	"github.com/SoarinFerret/TabWarden/internal/idle"
	"github.com/SoarinFerret/TabWarden/internal/ipc"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/limits"
	"github.com/SoarinFerret/TabWarden/internal/loginctl"
	"github.com/SoarinFerret/TabWarden/internal/notify"
	"github.com/SoarinFerret/TabWarden/internal/settings"
	"github.com/SoarinFerret/TabWarden/internal/store"
	"github.com/SoarinFerret/TabWarden/internal/store/postgres"
	"github.com/SoarinFerret/TabWarden/internal/surface"
)

type status struct {
	Tracker activity.State `json:"tracker"`
	Hub     surface.Status `json:"hub"`
}

func main() {
	// check for argument to determine config location
	argPath := "/etc/tabwarden/config.toml"
	if len(os.Args) > 1 {
		argPath = os.Args[1]
	}
	log.Println("Using config file at:", argPath)
	cfg, err := config.LoadConfigFromFile(argPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer kv.Close()

	hub := surface.NewHub(nil, cfg.Server.AllowedOrigins)
	defer hub.Close()

	var idleSrc idle.Source = hub
	if cfg.Idle.Source == config.IdleSourceDBus {
		monitor, err := idle.NewDBus()
		if err != nil {
			log.Fatal("Failed to open idle monitor: ", err)
		}
		defer monitor.Close()
		idleSrc = monitor
	}

	var sinks []notify.Sink
	if cfg.Notify.Desktop {
		desktop, err := notify.NewDesktop()
		if err != nil {
			log.Println("Desktop notifications disabled:", err)
		} else {
			defer desktop.Close()
			sinks = append(sinks, desktop)
		}
	}

	repo := settings.NewRepository(kv)
	l := ledger.New(kv, nil)
	dispatcher := notify.NewDispatcher(hub, sinks...)
	tracker := activity.NewTracker(hub, nil, cfg.Tracker.MaxElapsed.Std())

	eng := engine.NewEngine(engine.Components{
		Tracker:    tracker,
		Ledger:     l,
		Limits:     limits.New(repo, l, dispatcher),
		Dispatcher: dispatcher,
		Idle:       idleSrc,
	}, cfg, nil)
	hub.SetHandler(eng)

	svc := control.NewService(repo, l)
	statusFn := func() any {
		return status{Tracker: tracker.Snapshot(), Hub: hub.Status()}
	}

	var wg sync.WaitGroup

	// Start the tick engine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eng.Run(ctx); err != nil {
			log.Println("tick engine error:", err)
		}
	}()

	// Start the HTTP API and surface endpoint
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler := api.NewRouter(svc, hub, statusFn, cfg.Server.AllowedOrigins)
		if err := api.Serve(ctx, cfg.Server.Listen, handler); err != nil {
			log.Println("HTTP server error:", err)
			cancel()
		}
	}()

	if *cfg.DBus.Enabled {
		// Start the D-Bus control service for twctl
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("Opening D-Bus control service...")
			ctl := &ipc.ControlService{Service: svc, Status: statusFn}
			if err := ipc.Serve(ctx, ctl, cfg.DBus.System); err != nil {
				log.Println("D-Bus control service error:", err)
			}
		}()

		// Start the logind listener (system D-Bus)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("Monitoring logind for sleep and lock changes...")
			if err := loginctl.Watch(ctx, tracker); err != nil {
				log.Println("logind watcher error:", err)
			}
		}()
	}

	wg.Wait()
	fmt.Println("Shutdown complete")
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Println("Using postgres store")
		return db, nil
	default:
		log.Println("Using state file at:", cfg.Path)
		return store.OpenFile(cfg.Path)
	}
}
