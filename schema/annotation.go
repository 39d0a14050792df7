package schema

// Annotation attaches driver- or tool-specific metadata to an attribute,
// relation, or index descriptor without the descriptor itself needing to
// know the annotation's concrete type.
type Annotation interface {
	// Name identifies the annotation, e.g. "Comment" or "ColumnType".
	Name() string
}

// Merger is implemented by annotations that know how to combine with a
// previous instance of themselves, e.g. when a trait and the model both
// annotate the same field.
type Merger interface {
	Merge(other Annotation) Annotation
}

// CommentAnnotation attaches a free-text comment to a descriptor. The
// migration planner does not read it, and the generated DDL has no COMMENT
// clause for it.
type CommentAnnotation struct {
	Text string
}

// Name implements Annotation.
func (*CommentAnnotation) Name() string { return "Comment" }

// Comment returns a CommentAnnotation wrapping text.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{Text: text}
}
