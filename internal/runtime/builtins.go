package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/risor-io/risor/object"
)

// Severities a rule may report.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Finding is one problem a rule reported about a term.
type Finding struct {
	Term     string `json:"term"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// findingSink collects the findings of one rule run.
type findingSink struct {
	mu       sync.Mutex
	rule     string
	findings []Finding
}

func (s *findingSink) add(f Finding) {
	s.mu.Lock()
	s.findings = append(s.findings, f)
	s.mu.Unlock()
}

// makeReportFn creates the "report" host function.
//
// report(term, message) or report(term, severity, message) → nil
func makeReportFn(sink *findingSink) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 3 {
			return object.NewArgsRangeError("report", 2, 3, len(args))
		}
		term, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("report: term must be a string, got %s", args[0].Type())
		}
		severity := SeverityError
		msgArg := args[1]
		if len(args) == 3 {
			sev, ok := args[1].(*object.String)
			if !ok {
				return object.Errorf("report: severity must be a string, got %s", args[1].Type())
			}
			switch sev.Value() {
			case SeverityError, SeverityWarning, SeverityInfo:
				severity = sev.Value()
			default:
				return object.Errorf("report: unknown severity %q", sev.Value())
			}
			msgArg = args[2]
		}
		msg, ok := msgArg.(*object.String)
		if !ok {
			return object.Errorf("report: message must be a string, got %s", msgArg.Type())
		}
		sink.add(Finding{Term: term.Value(), Severity: severity, Message: msg.Value(), Rule: sink.rule})
		return object.Nil
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
