package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cschnabel/scorekeeper/internal/api"
	"github.com/cschnabel/scorekeeper/internal/config"
	"github.com/cschnabel/scorekeeper/internal/db"
	"github.com/cschnabel/scorekeeper/internal/derive"
	"github.com/cschnabel/scorekeeper/internal/model"
	"github.com/cschnabel/scorekeeper/internal/render"
	"github.com/cschnabel/scorekeeper/internal/store"
	"github.com/cschnabel/scorekeeper/internal/transfer"
	"github.com/cschnabel/scorekeeper/web"
)

var cfg config.Config

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg = config.Load()

	commands := map[string]func(context.Context, []string) error{
		"add":      runAdd,
		"edit":     runEdit,
		"delete":   runDelete,
		"list":     runList,
		"matchups": runMatchups,
		"chart":    runChart,
		"lists":    runLists,
		"export":   runExport,
		"import":   runImport,
		"serve":    runServe,
	}

	cmd := os.Args[1]
	run, ok := commands[cmd]
	if !ok {
		printUsage()
		os.Exit(1)
	}
	if err := run(ctx, os.Args[2:]); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func printUsage() {
	fmt.Println("scorekeeper commands:")
	fmt.Println("  add      -players A,B [-points 10,7] [-winner A] [-game G] [-date YYYY-MM-DD] [-notes N]")
	fmt.Println("  edit     -index I [any add flag]")
	fmt.Println("  delete   -index I")
	fmt.Println("  list     match history grouped by game")
	fmt.Println("  matchups [-game G]")
	fmt.Println("  chart    [-svg <path>]")
	fmt.Println("  lists    known games and players")
	fmt.Println("  export   [-dir <path>]")
	fmt.Println("  import   -file <path>")
	fmt.Println("  serve    [-addr=:8080] [-web-dist=<path>]")
	fmt.Println("")
	fmt.Println("Every command accepts -db <path> (default from SCOREKEEPER_DB or data/scorekeeper.db).")
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "sqlite database path")
	return fs, dbPath
}

func openStore(ctx context.Context, dbPath string) (*sql.DB, *store.Store, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Init(ctx, database); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	st := store.New(db.NewStore(database))
	if err := st.Load(ctx); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return database, st, nil
}

type draftFlags struct {
	game    *string
	players *string
	points  *string
	winner  *string
	date    *string
	notes   *string
}

func addDraftFlags(fs *flag.FlagSet) draftFlags {
	return draftFlags{
		game:    fs.String("game", "", "game name"),
		players: fs.String("players", "", "comma-separated player names"),
		points:  fs.String("points", "", "comma-separated points, aligned with -players"),
		winner:  fs.String("winner", "", "winner (defaults to the first player)"),
		date:    fs.String("date", "", "match date, YYYY-MM-DD (add defaults to today)"),
		notes:   fs.String("notes", "", "free-text notes"),
	}
}

// apply copies the flags that were set onto d.
func (f draftFlags) apply(fs *flag.FlagSet, d *model.Draft) {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["game"] {
		d.Game = *f.game
	}
	if set["players"] || set["points"] {
		names := splitList(*f.players)
		if !set["players"] {
			names = names[:0]
			for _, row := range d.Players {
				names = append(names, row.Name)
			}
		}
		points := splitList(*f.points)
		rows := make([]model.PlayerRow, 0, len(names))
		for i, name := range names {
			row := model.PlayerRow{Name: name}
			if i < len(points) {
				row.Points = points[i]
			}
			rows = append(rows, row)
		}
		d.Players = rows
	}
	if set["winner"] {
		d.Winner = *f.winner
	}
	if set["date"] {
		d.Date = *f.date
	}
	if set["notes"] {
		d.Notes = *f.notes
	}
}

// newDraft is the blank add form; only a new record is stamped with today.
func newDraft(now time.Time) model.Draft {
	return model.Draft{Date: now.Format(time.DateOnly)}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func runAdd(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("add")
	df := addDraftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	d := newDraft(time.Now())
	df.apply(fs, &d)
	m, err := st.Save(ctx, st.NewSession(), d)
	if err != nil {
		return err
	}
	log.Printf("added match: index=%d game=%q winner=%s points_won=%g", st.Len()-1, m.Game, m.Winner, m.PointsWon)
	return nil
}

func runEdit(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("edit")
	index := fs.Int("index", -1, "index of the match to edit")
	df := addDraftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	sess, d, err := st.Edit(*index)
	if err != nil {
		return err
	}
	df.apply(fs, &d)
	m, err := st.Save(ctx, sess, d)
	if err != nil {
		return err
	}
	log.Printf("updated match: index=%d game=%q winner=%s points_won=%g", *index, m.Game, m.Winner, m.PointsWon)
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("delete")
	index := fs.Int("index", -1, "index of the match to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	sess, _, err := st.Edit(*index)
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, sess); err != nil {
		return err
	}
	log.Printf("deleted match: index=%d remaining=%d", *index, st.Len())
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	return render.History(os.Stdout, derive.GroupByGame(st.Snapshot().Matches))
}

func runMatchups(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("matchups")
	game := fs.String("game", "", "only this game")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter := false
	fs.Visit(func(fl *flag.Flag) { filter = filter || fl.Name == "game" })

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	printed := 0
	for _, g := range derive.GroupByGame(st.Snapshot().Matches) {
		if filter && g.Game != *game {
			continue
		}
		if printed > 0 {
			fmt.Println()
		}
		if err := render.Matchups(os.Stdout, g.Game, derive.ComputeMatchup(g.Matches())); err != nil {
			return err
		}
		printed++
	}
	if filter && printed == 0 {
		return fmt.Errorf("no matches for game %q", *game)
	}
	return nil
}

func runChart(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("chart")
	svgPath := fs.String("svg", "", "write an SVG chart to this path instead of printing bars")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	series := derive.ChartSeries(st.Snapshot().Matches)
	if *svgPath == "" {
		return render.Bars(os.Stdout, series)
	}

	f, err := os.Create(*svgPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *svgPath, err)
	}
	if err := render.SVG(f, render.Layout(series)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote chart: path=%s games=%d", *svgPath, len(series))
	return nil
}

func runLists(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("lists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	matches := st.Snapshot().Matches
	return render.Lists(os.Stdout, derive.DistinctGames(matches), derive.DistinctPlayers(matches))
}

func runExport(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("export")
	dir := fs.String("dir", cfg.ExportDir, "directory to write the export into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	matches := st.Snapshot().Matches
	path, err := transfer.WriteExportFile(*dir, time.Now(), matches)
	if err != nil {
		return err
	}
	log.Printf("exported matches: path=%s count=%d", path, len(matches))
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("import")
	file := fs.String("file", "", "JSON export to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return errors.New("-file is required")
	}

	matches, err := transfer.DecodeFile(*file)
	if err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := st.ReplaceAll(ctx, matches); err != nil {
		return err
	}
	log.Printf("imported matches: path=%s count=%d", *file, len(matches))
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs, dbPath := newFlagSet("serve")
	addr := fs.String("addr", cfg.Addr, "http listen address")
	webDist := fs.String("web-dist", cfg.WebDist, "serve the frontend from this directory instead of the embedded page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, st, err := openStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	staticDir := *webDist
	if staticDir != "" {
		staticDir, _ = filepath.Abs(staticDir)
	}

	server := api.NewServer(st, staticDir, web.Dist())
	return server.Run(ctx, *addr)
}
