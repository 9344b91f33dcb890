package desktop

import (
	"fmt"
	"os"

	"github.com/cschnabel/scorekeeper/internal/model"
	"github.com/cschnabel/scorekeeper/internal/transfer"
)

func writeExport(path string, matches []model.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := transfer.Export(f, matches); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
