package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"match-core/internal/api"
	"match-core/internal/engine"
	"match-core/internal/events"
	"match-core/internal/fees"
	"match-core/internal/market"
	"match-core/internal/monitor"
	"match-core/internal/pairs"
	"match-core/pkg/cache"
	"match-core/pkg/config"
	"match-core/pkg/db"
)

const buildVersion = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: load failed: %v", err)
	}
	log.Printf("core: starting on port %s", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db: init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db: migrations failed: %v", err)
	}

	// Pair definitions: YAML file when present, env symbols otherwise.
	pairDefs, err := pairs.Load(cfg.PairsFile)
	if err != nil {
		log.Printf("pairs: %v, falling back to SYMBOLS env", err)
		pairDefs = pairs.Defaults(cfg.Symbols)
	}

	feeCalc := fees.NewCalculator(cfg.MakerFeeRate, cfg.TakerFeeRate)
	symbols := make([]string, 0, len(pairDefs))
	for _, p := range pairDefs {
		symbols = append(symbols, p.Symbol)
		if p.MakerFee > 0 || p.TakerFee > 0 {
			sched := feeCalc.Rates(p.Symbol)
			if p.MakerFee > 0 {
				sched.MakerRate = p.MakerFee
			}
			if p.TakerFee > 0 {
				sched.TakerRate = p.TakerFee
			}
			feeCalc.SetOverride(p.Symbol, sched)
		}
		if err := database.UpsertPair(ctx, db.Pair{
			Symbol:   p.Symbol,
			TickSize: p.TickSize,
			LotSize:  p.LotSize,
			MakerFee: p.MakerFee,
			TakerFee: p.TakerFee,
		}); err != nil {
			log.Printf("db: upsert pair %s: %v", p.Symbol, err)
		}
	}
	log.Printf("pairs: %d configured: %v", len(symbols), symbols)

	metrics := monitor.NewMetrics()

	// One engine per pair, routed by symbol.
	enginePairs := make([]*engine.Pair, 0, len(symbols))
	for _, sym := range symbols {
		p := engine.NewPair(sym, feeCalc, bus)
		p.DB = database
		p.Metrics = metrics
		enginePairs = append(enginePairs, p)
	}
	router := engine.NewRouter(enginePairs...)

	// Order journal: replay unresolved submissions from the last run, then
	// keep logging new ones.
	var journal *engine.Journal
	if cfg.EnableOrderWAL {
		journal, err = engine.NewJournal(cfg.OrderWALPath)
		if err != nil {
			log.Fatalf("journal: init failed: %v", err)
		}
		defer journal.Close()
		if err := journal.Recover(ctx, router); err != nil {
			log.Printf("journal: recovery failed: %v", err)
		} else {
			m := journal.Metrics()
			log.Printf("journal: recovered %d unresolved orders", m.Recovered)
		}
	}

	quotes := cache.NewQuoteCache()

	// Feed ticks into the engines and the quote cache.
	tickSub, unsubTicks := bus.Subscribe(events.EventPriceTick, 100)
	defer unsubTicks()
	bookSub, unsubBook := bus.Subscribe(events.EventBookUpdate, 100)
	defer unsubBook()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-tickSub:
				if !ok {
					return
				}
				tick, okCast := msg.(events.PriceTick)
				if !okCast {
					continue
				}
				router.OnTick(ctx, tick.Symbol, tick.Price)
				quotes.SetLastPrice(tick.Symbol, tick.Price)
			case msg, ok := <-bookSub:
				if !ok {
					return
				}
				update, okCast := msg.(events.BookUpdate)
				if !okCast {
					continue
				}
				quotes.SetTopOfBook(update.Symbol, update.BestBid, update.BestAsk)
			}
		}
	}()

	if cfg.UseMockFeed {
		mock := market.MockFeed{
			Bus:        bus,
			Symbols:    symbols,
			StartPrice: cfg.MockStartPrice,
			Step:       cfg.MockStep,
			Interval:   time.Duration(cfg.MockFeedInterval) * time.Millisecond,
		}
		mock.Start(ctx)
		log.Println("market: mock feed started")
	}

	server := api.NewServer(
		bus,
		database,
		router,
		journal,
		quotes,
		metrics,
		api.SystemMeta{
			Symbols:     symbols,
			UseMockFeed: cfg.UseMockFeed,
			Version:     buildVersion,
		},
		cfg.JWTSecret,
		cfg.DefaultDepth,
	)
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api: server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("core: shutting down")
}
