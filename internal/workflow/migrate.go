package workflow

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// MigrationCycleError is fatal: the document revisits a version tag while
// migrating, so it can never reach the current format.
type MigrationCycleError struct {
	Version string
	Visited []string
}

func (e *MigrationCycleError) Error() string {
	return fmt.Sprintf("migration cycle detected at version %q (visited %s)",
		e.Version, strings.Join(e.Visited, " -> "))
}

// MigrationStep moves a document from one legacy format version to the next.
// Apply must be a pure transform over the document map.
type MigrationStep struct {
	From  string
	To    string
	Apply func(doc map[string]any) map[string]any
}

// Migrator upgrades documents tagged with older format versions to
// CurrentVersion by chaining registered steps. Each version tag has at most
// one outgoing step.
type Migrator struct {
	logger zerolog.Logger
	steps  map[string]MigrationStep
}

// NewMigrator builds a migrator with the built-in steps registered.
func NewMigrator(logger zerolog.Logger) *Migrator {
	m := &Migrator{
		logger: logger,
		steps:  make(map[string]MigrationStep),
	}
	if err := m.Register(migrateV0ToV1()); err != nil {
		// Built-in steps are registered once on an empty table.
		panic(err)
	}
	return m
}

// Register adds a step; registering a second step for the same source
// version is an error.
func (slf *Migrator) Register(step MigrationStep) error {
	if step.From == "" || step.To == "" || step.Apply == nil {
		return fmt.Errorf("migration step %q -> %q is incomplete", step.From, step.To)
	}
	if existing, ok := slf.steps[step.From]; ok {
		return fmt.Errorf("version %q already migrates to %q", step.From, existing.To)
	}
	slf.steps[step.From] = step
	return nil
}

// EnsureCurrentVersion upgrades a document to the current format version.
// Already-current documents come back as a defensive deep copy. A version tag
// without a registered step is force-stamped to the current version with a
// warning: the document's shape is accepted as-is and left to the validator.
func (slf *Migrator) EnsureCurrentVersion(doc map[string]any) (map[string]any, error) {
	current := cloneAnyMap(doc)
	version, _ := current["version"].(string)
	if version == CurrentVersion {
		return current, nil
	}

	visited := []string{}
	seen := map[string]bool{}
	for version != CurrentVersion {
		if seen[version] {
			return nil, &MigrationCycleError{Version: version, Visited: append(visited, version)}
		}
		seen[version] = true
		visited = append(visited, version)

		step, ok := slf.steps[version]
		if !ok {
			slf.logger.Warn().
				Str("version", version).
				Str("currentVersion", CurrentVersion).
				Msg("No migration registered for workflow version, accepting document as-is")
			current["version"] = CurrentVersion
			return current, nil
		}

		slf.logger.Info().
			Str("from", step.From).
			Str("to", step.To).
			Msg("Migrating workflow document")
		current = step.Apply(current)
		current["version"] = step.To
		version = step.To
	}
	return current, nil
}

// EnsureCurrentDefinition migrates a raw document and decodes it into a
// typed definition in one call, the shape expected at the load boundary.
func (slf *Migrator) EnsureCurrentDefinition(doc map[string]any) (*Definition, error) {
	if err := CheckDocumentShape(doc); err != nil {
		return nil, err
	}
	migrated, err := slf.EnsureCurrentVersion(doc)
	if err != nil {
		return nil, err
	}
	return DecodeDefinition(migrated)
}

// migrateV0ToV1 covers the two contract changes between v0 and v1: tags were
// allowed to arrive as a comma separated string, and node labels could be
// blank (the node id now stands in).
func migrateV0ToV1() MigrationStep {
	return MigrationStep{
		From: LegacyVersionV0,
		To:   CurrentVersion,
		Apply: func(doc map[string]any) map[string]any {
			out := cloneAnyMap(doc)

			if meta, ok := out["metadata"].(map[string]any); ok {
				if rawTags, ok := meta["tags"].(string); ok {
					tags := make([]any, 0)
					for _, tag := range strings.Split(rawTags, ",") {
						if trimmed := strings.TrimSpace(tag); trimmed != "" {
							tags = append(tags, trimmed)
						}
					}
					meta["tags"] = tags
				}
			}

			if nodes, ok := out["nodes"].([]any); ok {
				for _, rawNode := range nodes {
					node, ok := rawNode.(map[string]any)
					if !ok {
						continue
					}
					label, _ := node["label"].(string)
					if strings.TrimSpace(label) == "" {
						if id, ok := node["id"].(string); ok {
							node["label"] = id
						}
					}
				}
			}
			return out
		},
	}
}
