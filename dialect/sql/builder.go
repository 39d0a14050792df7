package sql

import (
	"strconv"
	"strings"

	"github.com/ormforge/ormforge/dialect"
)

// Querier wraps the two-value Query contract shared by every builder in this
// package: the rendered SQL text plus its positional arguments.
type Querier interface {
	Query() (string, []any)
}

// Builder is the low-level SQL string builder every higher-level builder
// writes through. It owns identifier quoting (dialect-dependent) and
// argument placeholder numbering (dialect-dependent: "?" for MySQL/SQLite,
// "$N" for Postgres).
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
	total   int
}

// NewBuilder returns an empty Builder bound to dialectName.
func NewBuilder(dialectName string) *Builder {
	return &Builder{dialect: dialectName}
}

// Dialect returns the builder's bound dialect name.
func (b *Builder) Dialect() string { return b.dialect }

// Quote wraps an identifier in the dialect's quote character, splitting on
// "." so "users.id" becomes "users"."id" (or `users`.`id` for MySQL).
func (b *Builder) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	q := b.quoteChar()
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

func (b *Builder) quoteChar() string {
	if b.dialect == dialect.MySQL {
		return "`"
	}
	return `"`
}

// Ident writes a quoted identifier.
func (b *Builder) Ident(ident string) *Builder {
	if ident == "" {
		return b
	}
	if strings.ContainsAny(ident, "(") || ident == "*" {
		// already a raw SQL fragment (function call, "*", etc.)
		b.sb.WriteString(ident)
		return b
	}
	b.sb.WriteString(b.Quote(ident))
	return b
}

// WriteString writes a raw (already-safe) string fragment.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte writes a single raw byte.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Arg appends a bind argument and writes its placeholder.
func (b *Builder) Arg(v any) *Builder {
	b.total++
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(b.total))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Args appends every v, comma separated.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Comma writes ", ".
func (b *Builder) Comma() *Builder { b.sb.WriteString(", "); return b }

// Pad writes a single space.
func (b *Builder) Pad() *Builder { b.sb.WriteByte(' '); return b }

// Join merges another builder's SQL text and args into b.
func (b *Builder) Join(other *Builder) *Builder {
	b.sb.WriteString(other.sb.String())
	b.args = append(b.args, other.args...)
	b.total += other.total
	return b
}

// String returns the accumulated SQL text.
func (b *Builder) String() string { return b.sb.String() }

// Query implements Querier.
func (b *Builder) Query() (string, []any) { return b.sb.String(), b.args }

// clone copies the dialect binding, yielding a fresh (empty) Builder.
func (b *Builder) clone() *Builder { return &Builder{dialect: b.dialect} }

// Wrap runs fn against a clone and writes its result parenthesized into b.
func (b *Builder) Wrap(fn func(*Builder)) *Builder {
	nb := b.clone()
	fn(nb)
	b.sb.WriteByte('(')
	b.Join(nb)
	b.sb.WriteByte(')')
	return b
}

// Predicate is a composable WHERE/HAVING/ON fragment.
type Predicate struct {
	fns []func(*Builder)
}

// P wraps fn as a Predicate.
func P(fn func(*Builder)) *Predicate {
	return &Predicate{fns: []func(*Builder){fn}}
}

// Query implements Querier so a Predicate can be inspected standalone.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.writeTo(b)
	return b.Query()
}

func (p *Predicate) writeTo(b *Builder) {
	for _, fn := range p.fns {
		fn(b)
	}
}

func combine(op string, ps []*Predicate) *Predicate {
	return P(func(b *Builder) {
		if len(ps) == 0 {
			return
		}
		b.WriteByte('(')
		for i, p := range ps {
			if i > 0 {
				b.WriteString(op)
			}
			p.writeTo(b)
		}
		b.WriteByte(')')
	})
}

// And combines predicates with AND.
func And(ps ...*Predicate) *Predicate { return combine(" AND ", ps) }

// Or combines predicates with OR.
func Or(ps ...*Predicate) *Predicate { return combine(" OR ", ps) }

// Not negates p.
func Not(p *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT ")
		b.Wrap(func(nb *Builder) { p.writeTo(nb) })
	})
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(op)
		b.Arg(v)
	})
}

// EQ returns "col = ?".
func EQ(col string, v any) *Predicate { return binary(col, " = ", v) }

// NEQ returns "col <> ?".
func NEQ(col string, v any) *Predicate { return binary(col, " <> ", v) }

// GT returns "col > ?".
func GT(col string, v any) *Predicate { return binary(col, " > ", v) }

// GTE returns "col >= ?".
func GTE(col string, v any) *Predicate { return binary(col, " >= ", v) }

// LT returns "col < ?".
func LT(col string, v any) *Predicate { return binary(col, " < ", v) }

// LTE returns "col <= ?".
func LTE(col string, v any) *Predicate { return binary(col, " <= ", v) }

// Contains returns "col LIKE '%v%'".
func Contains(col, v string) *Predicate { return like(col, "%"+v+"%", false) }

// ContainsFold is a case-insensitive Contains (ILIKE on Postgres, LOWER() elsewhere).
func ContainsFold(col, v string) *Predicate { return like(col, "%"+v+"%", true) }

// HasPrefix returns "col LIKE 'v%'".
func HasPrefix(col, v string) *Predicate { return like(col, v+"%", false) }

// HasSuffix returns "col LIKE '%v'".
func HasSuffix(col, v string) *Predicate { return like(col, "%"+v, false) }

// EqualFold is a case-insensitive equality check.
func EqualFold(col, v string) *Predicate {
	return P(func(b *Builder) {
		if b.dialect == dialect.Postgres {
			b.Ident(col).WriteString(" ILIKE ").Arg(v)
			return
		}
		b.WriteString("LOWER(")
		b.Ident(col)
		b.WriteString(") = LOWER(")
		b.Arg(v)
		b.WriteByte(')')
	})
}

func like(col, pattern string, fold bool) *Predicate {
	return P(func(b *Builder) {
		if fold && b.dialect == dialect.Postgres {
			b.Ident(col).WriteString(" ILIKE ").Arg(pattern)
			return
		}
		if fold {
			b.WriteString("LOWER(")
			b.Ident(col)
			b.WriteString(") LIKE LOWER(")
			b.Arg(pattern)
			b.WriteByte(')')
			return
		}
		b.Ident(col).WriteString(" LIKE ").Arg(pattern)
	})
}

// IsNull returns "col IS NULL".
func IsNull(col string) *Predicate {
	return P(func(b *Builder) { b.Ident(col).WriteString(" IS NULL") })
}

// NotNull returns "col IS NOT NULL".
func NotNull(col string) *Predicate {
	return P(func(b *Builder) { b.Ident(col).WriteString(" IS NOT NULL") })
}

// In returns "col IN (?, ?, ...)". An empty vs list renders the always-false
// "1 = 0" so an empty IN-list never matches every row by accident.
func In(col string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(col).WriteString(" IN (")
		b.Args(vs...)
		b.WriteByte(')')
	})
}

// NotIn returns "col NOT IN (?, ?, ...)". An empty vs list renders the
// always-true "1 = 1".
func NotIn(col string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 1")
			return
		}
		b.Ident(col).WriteString(" NOT IN (")
		b.Args(vs...)
		b.WriteByte(')')
	})
}

// Raw embeds a raw SQL fragment verbatim, with its own bind args.
func Raw(fragment string, args ...any) *Predicate {
	return P(func(b *Builder) {
		b.WriteString(fragment)
		b.args = append(b.args, args...)
		b.total += len(args)
	})
}

