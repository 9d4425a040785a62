// Package activity manages the record of processing activities (GDPR
// Art. 30).
//
// The register is operator configuration: a YAML document with an embedded
// default, overridable by file. It is validated on load and written to the
// bound repository wholesale; an optional watcher reseeds it when the file
// changes.
package activity

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tutela/internal/consent/models"
	dErrors "tutela/pkg/domain-errors"
)

//go:embed register.yaml
var defaultRegisterYAML []byte

// maxRegisterSize caps register files at 1 MiB. The register is a short
// operator-maintained document; anything larger is a mistake.
const maxRegisterSize = 1 << 20

// Register is the slice of the repository the seeder writes through.
type Register interface {
	ReplaceProcessingActivities(ctx context.Context, activities []models.ProcessingActivity) error
}

// registerFile is the root of the YAML document.
type registerFile struct {
	Activities []models.ProcessingActivity `yaml:"activities"`
}

// Loader reads and validates the register, from the override file when one
// is configured and from the embedded default otherwise.
type Loader struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time
}

// LoaderOption adjusts loader construction.
type LoaderOption func(*Loader)

// WithClock substitutes the timestamp source.
func WithClock(clock func() time.Time) LoaderOption {
	return func(l *Loader) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewLoader builds a loader. An empty path selects the embedded default.
func NewLoader(path string, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:   path,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the override file path, or "" for the embedded default.
func (l *Loader) Path() string {
	return l.path
}

// Load parses and validates the register. Entries without a created_at are
// stamped with the load time.
func (l *Loader) Load(ctx context.Context) ([]models.ProcessingActivity, error) {
	data, source, err := l.read()
	if err != nil {
		return nil, err
	}

	activities, err := parseRegister(data)
	if err != nil {
		return nil, err
	}

	now := l.clock().UTC()
	for i := range activities {
		if activities[i].CreatedAt.IsZero() {
			activities[i].CreatedAt = now
		}
	}

	l.logger.InfoContext(ctx, "processing activity register loaded",
		"source", source, "entries", len(activities))
	return activities, nil
}

// Seed loads the register and replaces the stored one.
func (l *Loader) Seed(ctx context.Context, register Register) error {
	activities, err := l.Load(ctx)
	if err != nil {
		return err
	}
	if err := register.ReplaceProcessingActivities(ctx, activities); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "seeding processing activity register")
	}
	return nil
}

func (l *Loader) read() ([]byte, string, error) {
	if l.path == "" {
		return defaultRegisterYAML, "embedded", nil
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeValidation, "register file not readable")
	}
	if info.Size() > maxRegisterSize {
		return nil, "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("register file too large: %d bytes (max %d)", info.Size(), maxRegisterSize))
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeValidation, "reading register file")
	}
	return data, l.path, nil
}

// parseRegister decodes and validates one register document. IDs must be
// unique; they key wholesale replacement diffs in operator tooling.
func parseRegister(data []byte) ([]models.ProcessingActivity, error) {
	var doc registerFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parsing register YAML")
	}
	if len(doc.Activities) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "register has no activities")
	}

	seen := make(map[string]bool, len(doc.Activities))
	for i := range doc.Activities {
		entry := &doc.Activities[i]
		entry.Normalize()
		if err := entry.Validate(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation,
				fmt.Sprintf("register entry %d invalid", i))
		}
		if seen[entry.ID] {
			return nil, dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("register entry %d duplicates id %q", i, entry.ID))
		}
		seen[entry.ID] = true
	}
	return doc.Activities, nil
}
