package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gameticharles/symexpr"
	"github.com/gameticharles/symexpr/internal/store"
)

func main() {
	log.SetFlags(0)
	var (
		inname, op, varname string
		bindings, session   string
		with                [][2]string
		echo                bool
		prec                int
		order               int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&op, "op", "eval", "operation: eval, simplify, expand, diff, integrate, solve, taylor")
	flag.StringVar(&varname, "var", "x", "variable for diff, integrate, solve, and taylor")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.StringVar(&bindings, "bindings", "", "YAML file of name: expression variable definitions")
	flag.StringVar(&session, "session", "", "SQLite file persisting name = expr assignments across runs")
	flag.IntVar(&prec, "p", 64, "precision of calculations in bits")
	flag.IntVar(&order, "order", 5, "order of taylor expansion")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.Parse()
	if prec < 0 {
		log.Fatalf("precision (%d) must be positive", prec)
	}

	var ins []io.RuneScanner
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		ins = append(ins, f)
	}
	for _, arg := range flag.Args() {
		ins = append(ins, strings.NewReader(arg))
	}

	ctx := symexpr.NewContext(symexpr.Prec(uint(prec)))
	if bindings != "" {
		if err := loadBindings(ctx, bindings); err != nil {
			log.Fatalf("loading %s: %v", bindings, err)
		}
	}
	var sess store.Store
	if session != "" {
		s, err := store.NewSQLite(session)
		if err != nil {
			log.Fatalf("opening session %s: %v", session, err)
		}
		defer s.Close()
		saved, err := s.List()
		if err != nil {
			log.Fatalf("reading session %s: %v", session, err)
		}
		for name, e := range saved {
			bind(ctx, name, e)
		}
		sess = s
	}
	for _, d := range with {
		e, err := symexpr.ParseString(d[1])
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		bind(ctx, d[0], e)
	}

	for _, in := range ins {
		for {
			if _, _, err := in.ReadRune(); err != nil {
				if err == io.EOF {
					break
				}
				log.Fatal(err)
			}
			in.UnreadRune()
			if err := run(ctx, sess, in, op, varname, order, echo); err != nil {
				log.Fatal(err)
			}
		}
	}
}

func bind(ctx *symexpr.Context, name string, e *symexpr.Expr) {
	symexpr.SetVar(name, e)(ctx)
}

func run(ctx *symexpr.Context, sess store.Store, in io.RuneScanner, op, varname string, order int, echo bool) error {
	q, err := symexpr.ParseEquation(in)
	if err != nil {
		return err
	}
	if echo {
		fmt.Printf("%v : ", q.LHS)
	}
	// Anything but a solve with "name = expr" is an assignment.
	if op != "solve" && !q.Implicit && q.LHS.Kind() == symexpr.NodeVariable {
		name := q.LHS.Name()
		bind(ctx, name, q.RHS)
		if sess != nil {
			if err := sess.Put(name, q.RHS); err != nil {
				return err
			}
		}
		fmt.Printf("%s = %v\n", name, q.RHS.Simplify())
		return nil
	}
	e := q.LHS
	switch op {
	case "eval":
		r, err := e.Eval(ctx)
		if err != nil {
			return err
		}
		fmt.Println(r)
	case "simplify":
		fmt.Println(e.Simplify())
	case "expand":
		fmt.Println(e.Expand())
	case "diff":
		d, err := e.Diff(varname)
		if err != nil {
			return err
		}
		fmt.Println(d)
	case "integrate":
		fmt.Println(e.Integrate(varname))
	case "solve":
		sols, err := symexpr.SolveEquation(q, varname)
		if err != nil {
			return err
		}
		parts := make([]string, len(sols))
		for i, s := range sols {
			parts[i] = s.String()
		}
		fmt.Printf("%s = %s\n", varname, strings.Join(parts, ", "))
	case "taylor":
		t, err := symexpr.MaclaurinSeries(e, varname, order)
		if err != nil {
			return err
		}
		fmt.Println(t)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

func loadBindings(ctx *symexpr.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs map[string]string
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return err
	}
	for name, src := range defs {
		e, err := symexpr.ParseString(src)
		if err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
		bind(ctx, name, e)
	}
	return nil
}

func infile(inname string, std bool) (io.RuneScanner, error) {
	var f *os.File
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			log.Fatal(err)
		}
		f = in
	case inname == "-", std:
		f = os.Stdin
	}
	if f == nil {
		return nil, nil
	}
	return bufio.NewReader(f), nil
}
