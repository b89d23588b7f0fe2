package types

// Stats summarises one build.
type Stats struct {
	TotalFiles       int   `json:"totalFiles"`
	TotalCategories  int   `json:"totalCategories"`
	IgnoredPaths     int   `json:"ignoredPaths"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Manifest is the composed snapshot of one build. It is never mutated after
// composition; Categories is omitted when the index document is written.
type Manifest struct {
	GeneratedAt string         `json:"generatedAt"`
	Files       []FileMeta     `json:"files"`
	Categories  []CategoryNode `json:"categories,omitempty"`
	Stats       Stats          `json:"stats"`
}

// WithoutCategories returns a shallow copy with the categories field cleared
func (m *Manifest) WithoutCategories() *Manifest {
	cp := *m
	cp.Categories = nil
	return &cp
}
