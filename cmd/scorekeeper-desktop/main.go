package main

import (
	"context"
	"flag"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/cschnabel/scorekeeper/internal/api"
	"github.com/cschnabel/scorekeeper/internal/config"
	"github.com/cschnabel/scorekeeper/internal/db"
	"github.com/cschnabel/scorekeeper/internal/desktop"
	"github.com/cschnabel/scorekeeper/internal/store"
	"github.com/cschnabel/scorekeeper/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Load()
	dbPath := flag.String("db", cfg.DBPath, "sqlite database path")
	exportDir := flag.String("export-dir", cfg.ExportDir, "default export directory")
	flag.Parse()

	ctx := context.Background()
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("desktop failed: %v", err)
	}
	defer database.Close()

	if err := db.Init(ctx, database); err != nil {
		log.Fatalf("desktop failed: %v", err)
	}

	st := store.New(db.NewStore(database))
	if err := st.Load(ctx); err != nil {
		log.Fatalf("desktop failed: %v", err)
	}

	app := desktop.NewApp(st, *exportDir)
	server := api.NewServer(st, "", nil)

	err = wails.Run(&options.App{
		Title:  "Scorekeeper",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets:  web.Dist(),
			Handler: server.Handler(),
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 255},
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("desktop failed: %v", err)
	}
}
