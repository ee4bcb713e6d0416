// Command katadb is a minimal demo driver for the query execution core:
// it opens (or creates) a Badger-backed database, loads a small person/age
// dataset on first run, and runs a couple of canned queries against it.
// There is no query parser in this module (spec.md §1 Non-goals), so
// unlike the teacher's cmd/datalog, queries here are hand-built IR
// blocks rather than text typed at a prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/internal/logging"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
	"github.com/katadb/katadb/service"
	"github.com/katadb/katadb/storage"
)

func main() {
	var dbPath string
	var verbose bool
	flag.StringVar(&dbPath, "db", "katadb.db", "database directory")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs a small demo against a person/age dataset.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logging.New(os.Stderr)
	if verbose {
		log.SetMinLevel(logging.Debug)
	}

	if err := run(dbPath, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(dbPath string, log *logging.Logger) error {
	empty := true
	if _, err := os.Stat(dbPath); err == nil {
		empty = false
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tm := schema.NewInMemoryTypeManager()
	person := tm.DefineType("person", schema.CategoryEntity, schema.ValueTypeNone)
	age := tm.DefineType("age", schema.CategoryAttribute, schema.ValueTypeInteger)
	tm.AddOwns(person, age, schema.Cardinality{Min: 0, Max: 0})

	if empty {
		log.Info("database is empty, loading demo data")
		if err := loadDemoData(db, tm, person, age); err != nil {
			return fmt.Errorf("load demo data: %w", err)
		}
	}

	snap := db.OpenReadSnapshot()
	defer snap.Close()

	log.Info("running: match $p isa person, has age $a")
	resp, err := service.Execute(context.Background(), snap, tm, simpleMatchRequest())
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	fmt.Println(service.FormatTable(resp))

	log.Info("running: match $p isa person, has age $a; sort $a; offset 1; limit 2;")
	offset, limit := 1, 2
	req := simpleMatchRequest()
	req.Modifiers.Sort = []service.SortKey{{Variable: 2}}
	req.Modifiers.Offset = &offset
	req.Modifiers.Limit = &limit
	resp, err = service.Execute(context.Background(), snap, tm, req)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	fmt.Println(service.FormatTable(resp))

	return nil
}

const (
	demoP ir.VariableID = 1
	demoA ir.VariableID = 2
)

func simpleMatchRequest() service.QueryRequest {
	return service.QueryRequest{
		Block: &ir.Block{
			Variables: []ir.Variable{
				{ID: demoP, Name: "$p", Category: ir.CategoryInstance},
				{ID: demoA, Name: "$a", Category: ir.CategoryInstance},
			},
			Constraints: []ir.Constraint{
				ir.Isa{Thing: ir.VariableVertex{Variable: demoP}, Type: ir.LabelVertex{Label: "person"}},
				ir.Has{Owner: ir.VariableVertex{Variable: demoP}, Attribute: ir.VariableVertex{Variable: demoA}},
			},
		},
	}
}

func loadDemoData(db *storage.Database, tm schema.TypeManager, person, age schema.TypeID) error {
	w := db.OpenWriteSnapshot()
	mgr := concept.NewSnapshotThingManager(w, tm)
	for _, v := range []int64{10, 11, 12} {
		p := concept.Thing{TypeID: person, InstanceID: mgr.NewInstanceID(person), Category: schema.CategoryEntity}
		a := concept.Thing{TypeID: age, InstanceID: mgr.NewInstanceID(age), Category: schema.CategoryAttribute}
		if err := mgr.PutHas(w, p, a, concept.Integer(v)); err != nil {
			return err
		}
	}
	_, err := w.Commit()
	return err
}
