package metadata

import (
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/schema/relation"
)

// RelationInfo is the resolved shape of one declared relationship, as
// returned by Graph.ResolveRelation (spec.md §4.1).
type RelationInfo struct {
	Kind   relation.Kind
	Target string // target model name
	// TargetTable is the resolved table name for Target, populated only
	// when Target names a known model.
	TargetTable string

	Through      string // through model name, *Through relations only
	ThroughTable string

	ForeignKey string
	OwnerKey   string
	FirstKey   string
	SecondKey  string

	Pivot       string
	PivotFirst  string
	PivotSecond string

	MorphName string
	MorphType string
}

// Graph is the Schema Metadata Graph (spec.md §3, §4.1): a derived,
// immutable index over all models, built once after every model is loaded.
type Graph struct {
	models []*Model

	modelToTable map[string]string
	tableToModel map[string]string
	primaryKeys  map[string]string // table -> pk column

	// relations is table -> relation name -> resolved info.
	relations map[string]map[string]*RelationInfo

	singularizeStrategy string
}

// Option configures Build.
type Option func(*Graph)

// WithSingularizeStrategy sets the strategy singularise/foreign-key
// inference uses to turn a plural table name (or model name) into its
// singular form: "inflect" (default) or "none" (spec.md §4.1, §6
// relations.singularizeStrategy).
func WithSingularizeStrategy(strategy string) Option {
	return func(g *Graph) { g.singularizeStrategy = strategy }
}

// Build constructs the Schema Metadata Graph from models, failing when two
// models declare the same table (spec.md §4.1 "buildMetadata(models)").
func Build(models []*Model, opts ...Option) (*Graph, error) {
	g := &Graph{
		models:              models,
		modelToTable:        make(map[string]string, len(models)),
		tableToModel:        make(map[string]string, len(models)),
		primaryKeys:         make(map[string]string, len(models)),
		relations:           make(map[string]map[string]*RelationInfo, len(models)),
		singularizeStrategy: "inflect",
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, m := range models {
		table := m.Table()
		if _, exists := g.tableToModel[table]; exists {
			return nil, ormforge.NewDuplicateTableError(table)
		}
		g.modelToTable[m.Name] = table
		g.tableToModel[table] = m.Name
		g.primaryKeys[table] = m.PrimaryKey()
	}

	for _, m := range models {
		table := m.Table()
		byName := make(map[string]*RelationInfo, len(m.AllRelations()))
		for _, r := range m.AllRelations() {
			byName[r.Name] = g.resolve(m, r)
		}
		g.relations[table] = byName
	}
	return g, nil
}

func (g *Graph) resolve(owner *Model, r *relation.Descriptor) *RelationInfo {
	info := &RelationInfo{
		Kind:        r.Kind,
		Target:      r.Target,
		Through:     r.Through,
		ForeignKey:  r.ForeignKey,
		OwnerKey:    r.OwnerKey,
		FirstKey:    r.FirstKey,
		SecondKey:   r.SecondKey,
		Pivot:       r.Pivot,
		PivotFirst:  r.PivotFirst,
		PivotSecond: r.PivotSecond,
		MorphName:   r.MorphName,
		MorphType:   r.MorphType,
	}
	if table, ok := g.modelToTable[r.Target]; ok {
		info.TargetTable = table
	}
	if r.Through != "" {
		if table, ok := g.modelToTable[r.Through]; ok {
			info.ThroughTable = table
		}
	}
	if info.ForeignKey == "" && !r.Kind.IsPivoted() && !r.Kind.IsThrough() {
		switch r.Kind {
		case relation.BelongsTo:
			info.ForeignKey = strings.ToLower(g.Singularise(r.Target)) + "_id"
		default:
			info.ForeignKey = strings.ToLower(g.Singularise(owner.Name)) + "_id"
		}
	}
	if info.MorphType == "" && r.Kind.IsMorph() {
		info.MorphType = owner.Name
		if r.Kind == relation.MorphedByMany {
			info.MorphType = r.Target
		}
	}
	if info.Pivot == "" && r.Kind.IsPivoted() && !r.Kind.IsMorph() {
		info.Pivot = derivePivotName(owner.Name, r.Target, g)
	}
	if r.Kind.IsPivoted() {
		g.defaultPivotKeys(owner, r, info)
	}
	return info
}

// defaultPivotKeys fills PivotFirst/PivotSecond when the declaration left
// them blank. A plain belongsToMany uses each side's singularised FK
// column; a morph-to-many pivot additionally carries the MorphName's
// `_id`/`_type` discriminator pair in place of the morph owner's FK.
func (g *Graph) defaultPivotKeys(owner *Model, r *relation.Descriptor, info *RelationInfo) {
	ownerKey := strings.ToLower(g.Singularise(owner.Name)) + "_id"
	targetKey := strings.ToLower(g.Singularise(r.Target)) + "_id"
	switch r.Kind {
	case relation.BelongsToMany:
		if info.PivotFirst == "" {
			info.PivotFirst = ownerKey
		}
		if info.PivotSecond == "" {
			info.PivotSecond = targetKey
		}
	case relation.MorphToMany:
		if info.PivotFirst == "" {
			info.PivotFirst = info.MorphName + "_id"
		}
		if info.PivotSecond == "" {
			info.PivotSecond = targetKey
		}
	case relation.MorphedByMany:
		if info.PivotFirst == "" {
			info.PivotFirst = ownerKey
		}
		if info.PivotSecond == "" {
			info.PivotSecond = info.MorphName + "_id"
		}
	}
}

// derivePivotName implements spec.md §9 Open Question (a): the pivot table
// name for an un-overridden BelongsToMany is the lexicographically sorted
// pair of singularised, lowercased model names, joined by "_".
func derivePivotName(a, b string, g *Graph) string {
	sa, sb := strings.ToLower(g.Singularise(a)), strings.ToLower(g.Singularise(b))
	names := []string{sa, sb}
	sort.Strings(names)
	return names[0] + "_" + names[1]
}

// ResolveRelation looks up relationName declared on table, case-sensitive
// on the declared name (spec.md §4.1).
func (g *Graph) ResolveRelation(table, relationName string) (*RelationInfo, bool) {
	byName, ok := g.relations[table]
	if !ok {
		return nil, false
	}
	info, ok := byName[relationName]
	return info, ok
}

// AvailableRelationsOf returns the relation names declared on table, sorted,
// for use in "did you mean" suggestions (spec.md §4.1).
func (g *Graph) AvailableRelationsOf(table string) []string {
	byName, ok := g.relations[table]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ModelForTable returns the model name owning table, or "" if unknown.
func (g *Graph) ModelForTable(table string) string { return g.tableToModel[table] }

// TableForModel returns the table name for a model name, or "" if unknown.
func (g *Graph) TableForModel(model string) string { return g.modelToTable[model] }

// PrimaryKeyOf returns the primary key column of table, or "" if unknown.
func (g *Graph) PrimaryKeyOf(table string) string { return g.primaryKeys[table] }

// Models returns the graph's model list in declaration order.
func (g *Graph) Models() []*Model { return g.models }

// Singularise converts name to its singular form per the graph's configured
// strategy (spec.md §4.1 "the strategy is configurable (none disables it)").
func (g *Graph) Singularise(name string) string {
	if g.singularizeStrategy == "none" {
		return name
	}
	return inflect.Singularize(name)
}

// InferForeignKey resolves columnName (expected to end in "_id") to the
// table and column it references, by converting the column's model-name
// prefix from snake_case to PascalCase and matching it against a declared
// model name; failing that, it retries with a case-insensitive registry
// scan. This is the chosen resolution of spec.md §9 Open Question (b): both
// the snake_case→PascalCase conversion and a registry-based match are
// attempted before giving up (silently — no FK is inferred, not an error,
// per spec.md §4.3 "Failure semantics").
func (g *Graph) InferForeignKey(columnName string) (table, column string, ok bool) {
	if !strings.HasSuffix(columnName, "_id") {
		return "", "", false
	}
	prefix := strings.TrimSuffix(columnName, "_id")
	if prefix == "" {
		return "", "", false
	}
	modelName := snakeToPascal(prefix)
	if t, found := g.modelToTable[modelName]; found {
		return t, g.primaryKeys[t], true
	}
	for name, t := range g.modelToTable {
		if strings.EqualFold(name, modelName) {
			return t, g.primaryKeys[t], true
		}
	}
	return "", "", false
}

func snakeToPascal(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
