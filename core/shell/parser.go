// Package shell turns command lines into pipelines for the job core.
//
// Only a small part of the POSIX grammar is accepted: simple commands joined
// with |, the redirections <, >, >>, &>, &>> and N>/N>> for the standard
// streams, and a trailing &. Lists (;, && and ||), substitutions and compound
// commands are rejected.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/jsh/core/job"
	"mvdan.cc/sh/v3/syntax"
)

// Env is where parameter expansions are looked up.
type Env interface {
	Getenv(key string) string
}

// SyntaxError is a line the parser can't accept. Col is 1-based; 0 means the
// position is unknown.
type SyntaxError struct {
	Line string
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid syntax: %s", e.Msg)
}

// Caret renders the offending line with a marker under the error position.
func (e *SyntaxError) Caret() string {
	col := e.Col
	if col < 1 {
		col = len(e.Line) + 1
	}
	return e.Line + "\n" + strings.Repeat(" ", col-1) + "^"
}

type parser struct {
	line string
	env  Env
}

// Parse parses one command line. A blank line yields a pipeline with no
// stages.
func Parse(line string, env Env) (job.PipelineSpec, error) {
	p := &parser{line: line, env: env}

	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		var perr syntax.ParseError
		if errors.As(err, &perr) {
			return job.PipelineSpec{}, &SyntaxError{Line: line, Col: int(perr.Pos.Col()), Msg: perr.Text}
		}
		return job.PipelineSpec{}, &SyntaxError{Line: line, Msg: err.Error()}
	}

	switch len(file.Stmts) {
	case 0:
		return job.PipelineSpec{}, nil
	case 1:
	default:
		return job.PipelineSpec{}, p.unsupported(file.Stmts[1], "command list")
	}

	stmt := file.Stmts[0]
	out := job.PipelineSpec{
		Background:  stmt.Background,
		CommandLine: commandLine(line, stmt.Background),
	}
	if stmt.Negated || stmt.Coprocess {
		return job.PipelineSpec{}, p.unsupported(stmt, "pipeline modifier")
	}

	if err := p.pipeline(stmt, &out.Stages); err != nil {
		return job.PipelineSpec{}, err
	}
	return out, nil
}

// commandLine is the text jobs shows: the trimmed line without the trailing
// background marker.
func commandLine(line string, background bool) string {
	out := strings.TrimSpace(line)
	if background {
		out = strings.TrimSpace(strings.TrimSuffix(out, "&"))
	}
	return out
}

func (p *parser) pipeline(stmt *syntax.Stmt, stages *[]job.CommandSpec) error {
	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if cmd.Op != syntax.Pipe {
			return p.unsupported(cmd, fmt.Sprintf("operator %s", cmd.Op))
		}
		if len(stmt.Redirs) > 0 {
			return p.unsupported(stmt.Redirs[0], "redirection of a whole pipeline")
		}
		if err := p.pipeline(cmd.X, stages); err != nil {
			return err
		}
		return p.pipeline(cmd.Y, stages)

	case *syntax.CallExpr:
		spec, err := p.command(stmt, cmd)
		if err != nil {
			return err
		}
		*stages = append(*stages, spec)
		return nil

	case nil:
		return p.errorAt(stmt, "missing command")

	default:
		return p.unsupported(cmd, "compound command")
	}
}

func (p *parser) command(stmt *syntax.Stmt, call *syntax.CallExpr) (job.CommandSpec, error) {
	var spec job.CommandSpec

	if len(call.Assigns) > 0 {
		return spec, p.unsupported(call.Assigns[0], "variable assignment")
	}
	if len(call.Args) == 0 {
		return spec, p.errorAt(stmt, "missing command")
	}

	for i, word := range call.Args {
		value, err := p.word(word)
		if err != nil {
			return spec, err
		}
		if i == 0 {
			spec.Program = value
		} else {
			spec.Argv = append(spec.Argv, value)
		}
	}

	for _, redir := range stmt.Redirs {
		if err := p.redirect(&spec, redir); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func (p *parser) redirect(spec *job.CommandSpec, redir *syntax.Redirect) error {
	target, err := p.word(redir.Word)
	if err != nil {
		return err
	}
	if target == "" {
		return p.errorAt(redir, "empty redirection target")
	}

	stream := job.Stdout
	if redir.Op == syntax.RdrIn {
		stream = job.Stdin
	}
	if redir.N != nil {
		switch redir.N.Value {
		case "0":
			stream = job.Stdin
		case "1":
			stream = job.Stdout
		case "2":
			stream = job.Stderr
		default:
			return p.unsupported(redir, fmt.Sprintf("descriptor %s", redir.N.Value))
		}
	}

	switch redir.Op {
	case syntax.RdrIn:
		if stream != job.Stdin {
			return p.errorAt(redir, "can't read into an output stream")
		}
		spec.Redirect(stream, job.Redirection{Path: target, Mode: job.Read})
	case syntax.RdrOut, syntax.ClbOut:
		if stream == job.Stdin {
			return p.errorAt(redir, "can't write from standard input")
		}
		spec.Redirect(stream, job.Redirection{Path: target, Mode: job.WriteTruncate})
	case syntax.AppOut:
		if stream == job.Stdin {
			return p.errorAt(redir, "can't write from standard input")
		}
		spec.Redirect(stream, job.Redirection{Path: target, Mode: job.WriteAppend})
	case syntax.RdrAll:
		r := job.Redirection{Path: target, Mode: job.WriteTruncate, Shared: true}
		spec.Redirect(job.Stdout, r)
		spec.Redirect(job.Stderr, r)
	case syntax.AppAll:
		r := job.Redirection{Path: target, Mode: job.WriteAppend, Shared: true}
		spec.Redirect(job.Stdout, r)
		spec.Redirect(job.Stderr, r)
	default:
		return p.unsupported(redir, fmt.Sprintf("redirection %s", redir.Op))
	}
	return nil
}

func (p *parser) word(word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}

	var sb strings.Builder
	for i, part := range word.Parts {
		if lit, ok := part.(*syntax.Lit); ok && i == 0 {
			sb.WriteString(p.tilde(unescape(lit.Value, false)))
			continue
		}
		if err := p.wordPart(&sb, part, false); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (p *parser) wordPart(sb *strings.Builder, part syntax.WordPart, quoted bool) error {
	switch part := part.(type) {
	case *syntax.Lit:
		sb.WriteString(unescape(part.Value, quoted))
	case *syntax.SglQuoted:
		if part.Dollar {
			return p.unsupported(part, "ANSI-C quoting")
		}
		sb.WriteString(part.Value)
	case *syntax.DblQuoted:
		if part.Dollar {
			return p.unsupported(part, "locale quoting")
		}
		for _, sub := range part.Parts {
			if err := p.wordPart(sb, sub, true); err != nil {
				return err
			}
		}
	case *syntax.ParamExp:
		if part.Param == nil || part.Excl || part.Length || part.Width ||
			part.Index != nil || part.Slice != nil || part.Repl != nil ||
			part.Names != 0 || part.Exp != nil {
			return p.unsupported(part, "parameter operator")
		}
		sb.WriteString(p.env.Getenv(part.Param.Value))
	default:
		return p.unsupported(part, "substitution")
	}
	return nil
}

// tilde expands a leading ~ to $HOME.
func (p *parser) tilde(s string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		return p.env.Getenv("HOME") + s[1:]
	}
	return s
}

// unescape removes shell backslash escapes. Inside double quotes a backslash
// only escapes $, `, ", \ and newline.
func unescape(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (p *parser) unsupported(node syntax.Node, what string) error {
	return p.errorAt(node, "unsupported "+what)
}

func (p *parser) errorAt(node syntax.Node, msg string) error {
	return &SyntaxError{Line: p.line, Col: int(node.Pos().Col()), Msg: msg}
}
