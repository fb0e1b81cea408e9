// Package nl2sql turns natural-language questions into SQL.
package nl2sql

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voice2sql/voice2sql/internal/observability"
)

// NotAvailable is the SQL reported when the translator declines a question.
const NotAvailable = "N/A"

// Path identifies the policy branch that produced an Outcome.
type Path string

const (
	PathEmpty    Path = "empty"
	PathDemo     Path = "demo"
	PathModel    Path = "model"
	PathDeclined Path = "declined"
)

type Outcome struct {
	SQL   string
	Error string
	Path  Path
}

// Declined reports whether no SQL could be produced.
func (o Outcome) Declined() bool {
	return o.SQL == NotAvailable
}

// Model is a text-to-text generator.
type Model interface {
	Generate(ctx context.Context, input string) (string, error)
}

type TableContext struct {
	TableName string   `json:"table_name"`
	Columns   []string `json:"columns"`
}

// SchemaFunc lists the tables a generated query may refer to.
type SchemaFunc func(ctx context.Context) ([]TableContext, error)

type Config struct {
	// Model is optional; without it only demo patterns are answered.
	Model Model
	// DemoPatterns defaults to DefaultDemoPatterns when nil.
	DemoPatterns []DemoPattern
	Schema       SchemaFunc
	Logger       *slog.Logger
}

type Translator struct {
	model    Model
	patterns []DemoPattern
	schema   SchemaFunc
	logger   *slog.Logger
}

func NewTranslator(cfg Config) *Translator {
	patterns := cfg.DemoPatterns
	if patterns == nil {
		patterns = DefaultDemoPatterns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Translator{
		model:    cfg.Model,
		patterns: patterns,
		schema:   cfg.Schema,
		logger:   logger,
	}
}

func (t *Translator) ModelLoaded() bool {
	return t.model != nil
}

// Translate never fails; problems are reported through Outcome.Error with
// Outcome.SQL set to NotAvailable.
func (t *Translator) Translate(ctx context.Context, text string) Outcome {
	outcome := t.translate(ctx, strings.TrimSpace(text))
	observability.ObserveTranslation(string(outcome.Path))
	return outcome
}

func (t *Translator) translate(ctx context.Context, text string) Outcome {
	if text == "" {
		return Outcome{Path: PathEmpty}
	}
	if pattern, ok := matchDemoPattern(t.patterns, text); ok {
		t.logger.DebugContext(ctx, "nl2sql_demo_match",
			observability.TraceAttr(ctx),
			slog.String("phrase", pattern.Phrase),
		)
		return Outcome{SQL: pattern.SQL, Path: PathDemo}
	}
	if t.model == nil {
		return t.decline(ctx, text, &TranslationError{Reason: "this query is not supported in demo mode", Err: ErrModelUnavailable})
	}

	raw, err := t.model.Generate(ctx, BuildPrompt(text, t.tables(ctx)))
	if err != nil {
		return t.decline(ctx, text, &TranslationError{Reason: "model invocation failed", Err: err})
	}
	sql, err := ParseSQL(raw)
	if err != nil {
		return t.decline(ctx, text, &TranslationError{Reason: "model output is not usable SQL", Err: err})
	}
	return Outcome{SQL: sql, Path: PathModel}
}

func (t *Translator) decline(ctx context.Context, text string, err *TranslationError) Outcome {
	t.logger.InfoContext(ctx, "nl2sql_declined",
		observability.TraceAttr(ctx),
		slog.String("query", text),
		slog.String("error", err.Error()),
	)
	return Outcome{SQL: NotAvailable, Error: err.Error(), Path: PathDeclined}
}

func (t *Translator) tables(ctx context.Context) []TableContext {
	if t.schema == nil {
		return nil
	}
	tables, err := t.schema(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "nl2sql_schema_unavailable",
			observability.TraceAttr(ctx),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return tables
}

// BuildPrompt formats text and the available tables as model input.
func BuildPrompt(text string, tables []TableContext) string {
	var b strings.Builder
	b.WriteString("translate English to SQL: ")
	b.WriteString(strings.TrimSpace(text))
	if len(tables) > 0 {
		b.WriteString("\ntables: ")
		for i, table := range tables {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(table.TableName)
			b.WriteByte('(')
			b.WriteString(strings.Join(table.Columns, ", "))
			b.WriteByte(')')
		}
	}
	return b.String()
}

// ParseSQL extracts a single SQL statement from raw model output.
func ParseSQL(raw string) (string, error) {
	sql := StripTrailingSemicolons(stripMarkdownSQL(raw))
	if sql == "" {
		return "", ErrEmptySQL
	}
	return sql, nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
