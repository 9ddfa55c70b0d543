package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nutcracker/showrunner/internal/config"
	"github.com/nutcracker/showrunner/internal/pattern"
	"github.com/nutcracker/showrunner/internal/show"
)

var checkCmd = &cobra.Command{
	Use:   "check [pattern...]",
	Short: "Validate configuration, catalog, patterns and music files",
	Long: `Check loads the configuration and the show catalog, decodes every
pattern the catalog references (plus any given as arguments) and reports
frames that address LEDs outside the matrix. Exit status is non-zero when
anything fails to load.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(config.Load(), args)
	},
}

func check(cfg config.Config, extra []string) error {
	failed := 0

	if err := cfg.Validate(); err != nil {
		failf("configuration: %v", err)
		return errors.New("configuration is invalid")
	}
	size := layoutOf(cfg).Size()
	okf("configuration (%dx%d matrix, sinks: %s)", cfg.MatrixWidth, cfg.MatrixHeight, cfg.Sink)

	store := pattern.NewStore(cfg.ContentRoot)
	checkPattern := func(rel string) {
		p, err := store.Load(rel)
		if err != nil {
			failf("%v", err)
			failed++
			return
		}
		warnings := p.Validate(size)
		if len(warnings) == 0 {
			okf("%s: %d frames, %v", rel, len(p.Frames), p.Duration)
			return
		}
		warnf("%s: %d frames, %d warnings", rel, len(p.Frames), len(warnings))
		for _, w := range warnings {
			fmt.Printf("    %s\n", w)
		}
	}

	if cfg.IdlePattern != "" {
		checkPattern(cfg.IdlePattern)
	}

	catalog, err := show.LoadCatalog(catalogPath(cfg), store)
	switch {
	case err == nil:
		okf("catalog %s: %d shows", catalogPath(cfg), len(catalog.Shows()))
		for _, s := range catalog.Shows() {
			checkPattern(s.PatternPath)
			path, err := pattern.ResolvePath(cfg.ContentRoot, s.MusicPath)
			if err == nil {
				_, err = os.Stat(path)
			}
			if err != nil {
				failf("%s: music: %v", s.Name, err)
				failed++
			}
		}
	case errors.Is(err, os.ErrNotExist):
		warnf("no catalog at %s", catalogPath(cfg))
	default:
		failf("%v", err)
		failed++
	}

	for _, rel := range extra {
		checkPattern(rel)
	}

	if failed > 0 {
		return fmt.Errorf("%d problems found", failed)
	}
	return nil
}
