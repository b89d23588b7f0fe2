package composer

import (
	"sort"
	"time"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/internal/collation"
	"github.com/dshills/mirrorindex/pkg/types"
)

// Options configures manifest composition
type Options struct {
	GeneratedAt time.Time // Build start time (default: now)
	Locale      string    // Collation locale (default: collation.DefaultLocale)
}

// Compose merges files and categories into a manifest. Both lists are copied
// and re-sorted. Stats.IgnoredPaths and Stats.ProcessingTimeMs are left zero
// for the caller to fill in.
func Compose(files []types.FileMeta, categories []types.CategoryNode, opts Options) *types.Manifest {
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	sortedFiles := append([]types.FileMeta(nil), files...)
	SortFiles(sortedFiles, opts.Locale)

	sortedCategories := append([]types.CategoryNode(nil), categories...)
	category.Sort(sortedCategories, opts.Locale)

	if sortedFiles == nil {
		sortedFiles = []types.FileMeta{}
	}
	if sortedCategories == nil {
		sortedCategories = []types.CategoryNode{}
	}

	return &types.Manifest{
		GeneratedAt: types.FormatTimestamp(generatedAt),
		Files:       sortedFiles,
		Categories:  sortedCategories,
		Stats: types.Stats{
			TotalFiles:      len(sortedFiles),
			TotalCategories: len(sortedCategories),
		},
	}
}

// SortFiles orders files by collated category id, then by collated path
func SortFiles(files []types.FileMeta, locale string) {
	if locale == "" {
		locale = collation.DefaultLocale
	}
	cmp := collation.New(locale)
	sort.SliceStable(files, func(i, j int) bool {
		if c := cmp.Compare(files[i].CategoryID, files[j].CategoryID); c != 0 {
			return c < 0
		}
		return cmp.Less(files[i].Path, files[j].Path)
	})
}
