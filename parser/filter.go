package parser

import (
	"fmt"
	"net"

	"github.com/DaviCMachado/T2-Redes/config"
	"github.com/DaviCMachado/T2-Redes/pkg/packet"
	"github.com/DaviCMachado/T2-Redes/util"
	"github.com/google/cel-go/cel"
	log "github.com/sirupsen/logrus"
)

// filter decides which records take part in an analysis
type filter struct {
	alwaysIncluded []*net.IPNet
	neverIncluded  []*net.IPNet
	expression     cel.Program
	log            *log.Logger
}

// newFilterEnv declares the record fields visible to filter expressions
func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("timestamp", cel.DoubleType),
		cel.Variable("src_ip", cel.StringType),
		cel.Variable("dst_ip", cel.StringType),
		cel.Variable("src_port", cel.IntType),
		cel.Variable("dst_port", cel.IntType),
		cel.Variable("protocol", cel.StringType),
		cel.Variable("length", cel.DoubleType),
		cel.Variable("flags", cel.StringType),
		cel.Variable("window", cel.DoubleType),
		cel.Variable("mss", cel.DoubleType),
	)
}

// compileExpression compiles a boolean filter expression
func compileExpression(expression string) (cel.Program, error) {
	env, err := newFilterEnv()
	if err != nil {
		return nil, err
	}

	ast, iss := env.Compile(expression)
	if iss.Err() != nil {
		return nil, fmt.Errorf("could not compile filter expression %q: %w", expression, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter expression %q must evaluate to a bool, not %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("could not build filter expression %q: %w", expression, err)
	}
	return program, nil
}

func newFilter(conf *config.Config, logger *log.Logger) (*filter, error) {
	f := &filter{
		alwaysIncluded: conf.R.Filtering.AlwaysIncluded,
		neverIncluded:  conf.R.Filtering.NeverIncluded,
		log:            logger,
	}

	if conf.S.Filtering.Expression != "" {
		program, err := compileExpression(conf.S.Filtering.Expression)
		if err != nil {
			return nil, err
		}
		f.expression = program
	}
	return f, nil
}

// filterPacket returns true when the record should be left out. Records
// touching an always included address are kept. Otherwise records touching
// a never included address are dropped, as are records the expression
// rejects.
func (f *filter) filterPacket(record *packet.Record) (ignore bool) {
	srcIP := net.ParseIP(record.SrcIP)
	dstIP := net.ParseIP(record.DstIP)

	if util.ContainsIP(f.alwaysIncluded, srcIP) || util.ContainsIP(f.alwaysIncluded, dstIP) {
		return false
	}

	if util.ContainsIP(f.neverIncluded, srcIP) || util.ContainsIP(f.neverIncluded, dstIP) {
		return true
	}

	if f.expression == nil {
		return false
	}

	matched, err := f.evaluate(record)
	if err != nil {
		f.log.WithFields(log.Fields{
			"error":      err.Error(),
			"connection": record.ConnID,
		}).Debug("Filter expression failed on record")
		return true
	}
	return !matched
}

func (f *filter) evaluate(record *packet.Record) (bool, error) {
	vars := map[string]interface{}{
		"timestamp": float64(record.Timestamp.UnixNano()) / 1e9,
		"src_ip":    record.SrcIP,
		"dst_ip":    record.DstIP,
		"src_port":  int64(record.SrcPort),
		"dst_port":  int64(record.DstPort),
		"protocol":  record.Protocol,
		"length":    record.Length.Value,
		"flags":     string(record.Flags),
		"window":    record.Window.Value,
		"mss":       record.MSS,
	}

	out, _, err := f.expression.Eval(vars)
	if err != nil {
		return false, err
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter result is not boolean: %v", out.Value())
	}
	return matched, nil
}
