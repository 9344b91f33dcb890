// Package desktop binds the match store to a Wails window.
package desktop

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/cschnabel/scorekeeper/internal/derive"
	"github.com/cschnabel/scorekeeper/internal/model"
	"github.com/cschnabel/scorekeeper/internal/render"
	"github.com/cschnabel/scorekeeper/internal/store"
	"github.com/cschnabel/scorekeeper/internal/transfer"
)

// ChangeEvent is emitted to the frontend after every mutation.
const ChangeEvent = "matches:changed"

// App is the struct bound into the frontend.
type App struct {
	ctx       context.Context
	store     *store.Store
	exportDir string
	now       func() time.Time

	// emit is read from whichever goroutine commits a mutation.
	mu   sync.Mutex
	emit func(event string, data ...interface{})

	saveDialog func(defaultDir, defaultName string) (string, error)
	openDialog func(defaultDir string) (string, error)
}

// NewApp creates a new App application struct
func NewApp(st *store.Store, exportDir string) *App {
	a := &App{
		ctx:       context.Background(),
		store:     st,
		exportDir: exportDir,
		now:       time.Now,
	}
	st.Subscribe(func(version uint64) {
		a.mu.Lock()
		emit := a.emit
		a.mu.Unlock()
		if emit != nil {
			emit(ChangeEvent, version)
		}
	})
	return a
}

// Startup is called when the app starts
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.setEmit(func(event string, data ...interface{}) {
		runtime.EventsEmit(ctx, event, data...)
	})
	a.saveDialog = func(defaultDir, defaultName string) (string, error) {
		return runtime.SaveFileDialog(ctx, runtime.SaveDialogOptions{
			DefaultDirectory: defaultDir,
			DefaultFilename:  defaultName,
			Title:            "Export matches",
			Filters:          []runtime.FileFilter{{DisplayName: "JSON", Pattern: "*.json"}},
		})
	}
	a.openDialog = func(defaultDir string) (string, error) {
		return runtime.OpenFileDialog(ctx, runtime.OpenDialogOptions{
			DefaultDirectory: defaultDir,
			Title:            "Import matches",
			Filters:          []runtime.FileFilter{{DisplayName: "JSON", Pattern: "*.json"}},
		})
	}
}

func (a *App) setEmit(fn func(event string, data ...interface{})) {
	a.mu.Lock()
	a.emit = fn
	a.mu.Unlock()
}

// Shutdown is called when the app is closing
func (a *App) Shutdown(ctx context.Context) {
	log.Printf("desktop shutdown: matches=%d", a.store.Len())
}

// ViewsResult is what the frontend redraws from.
type ViewsResult struct {
	Version uint64 `json:"version"`
	derive.Views
	Layout render.Chart `json:"layout"`
}

func (a *App) Views() ViewsResult {
	if err := a.store.Refresh(a.ctx); err != nil {
		log.Printf("refresh matches: %v", err)
	}
	snap := a.store.Snapshot()
	views := derive.ComputeViews(snap.Matches)
	return ViewsResult{Version: snap.Version, Views: views, Layout: render.Layout(views.Chart)}
}

// EditResult opens the form on an existing record.
type EditResult struct {
	Session store.Session `json:"session"`
	Draft   model.Draft   `json:"draft"`
}

func (a *App) NewSession() store.Session {
	return a.store.NewSession()
}

func (a *App) OpenMatch(index int) (EditResult, error) {
	sess, d, err := a.store.Edit(index)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Session: sess, Draft: d}, nil
}

func (a *App) SaveMatch(sess store.Session, d model.Draft) (model.Match, error) {
	return a.store.Save(a.ctx, sess, d)
}

func (a *App) DeleteMatch(sess store.Session) error {
	return a.store.Delete(a.ctx, sess)
}

func (a *App) EligibleWinners(names []string) []string {
	return derive.EligibleWinners(names)
}

// ExportMatches asks for a target file and writes the export there. An
// empty path means the dialog was cancelled.
func (a *App) ExportMatches() (string, error) {
	if a.saveDialog == nil {
		return transfer.WriteExportFile(a.exportDir, a.now(), a.store.Snapshot().Matches)
	}
	path, err := a.saveDialog(a.exportDir, transfer.ExportFilename(a.now()))
	if err != nil || path == "" {
		return "", err
	}
	if err := writeExport(path, a.store.Snapshot().Matches); err != nil {
		return "", err
	}
	log.Printf("exported matches to %s", path)
	return path, nil
}

// ImportMatches asks for a file and replaces the list with its contents.
// It returns the number of imported records; 0 with a nil error means the
// dialog was cancelled.
func (a *App) ImportMatches() (int, error) {
	if a.openDialog == nil {
		return 0, fmt.Errorf("import needs a window")
	}
	path, err := a.openDialog(a.exportDir)
	if err != nil || path == "" {
		return 0, err
	}
	return a.ImportFile(path)
}

// ImportFile replaces the list with the records in path.
func (a *App) ImportFile(path string) (int, error) {
	matches, err := transfer.DecodeFile(path)
	if err != nil {
		return 0, err
	}
	if err := a.store.ReplaceAll(a.ctx, matches); err != nil {
		return 0, err
	}
	log.Printf("imported matches: path=%s count=%d", path, len(matches))
	return len(matches), nil
}
