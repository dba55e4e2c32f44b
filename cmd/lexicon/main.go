package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/atprose/lexicon"
	"github.com/atprose/lexicon/catalog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "check":
		checkCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `lexicon CLI

Usage:
  lexicon check <schema-dir>
  lexicon validate -collection <nsid> [-key <rkey>] -schema <schema-dir> <record.json>

check loads every lexicon document under <schema-dir> and builds the schema
graph, reporting authoring mistakes. validate checks one record file against
its collection and prints each issue as "code path message".`)
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	dir := fs.Arg(0)

	cat := catalog.New()
	if err := cat.Load(context.Background(), os.DirFS(dir)); err != nil {
		fatalf("load %s: %v", dir, err)
	}
	g, err := cat.Graph(lexicon.BuildOptions{})
	if err != nil {
		fatalf("build: %v", err)
	}
	fmt.Printf("ok: %d documents, %d definitions\n", len(cat.IDs()), len(g.TypeIDs()))
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var collection string
	var key string
	var schemaDir string
	fs.StringVar(&collection, "collection", "", "collection NSID the record belongs to")
	fs.StringVar(&key, "key", "", "record key to check against the collection's key strategy")
	fs.StringVar(&schemaDir, "schema", "", "directory holding the lexicon documents")
	_ = fs.Parse(args)
	if collection == "" || schemaDir == "" || fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatalf("read record: %v", err)
	}
	record, err := lexicon.DecodeValue(data)
	if err != nil {
		reportIssues(err)
	}

	cat := catalog.New()
	if err := cat.Load(context.Background(), os.DirFS(schemaDir)); err != nil {
		fatalf("load %s: %v", schemaDir, err)
	}
	g, err := cat.Graph(lexicon.BuildOptions{})
	if err != nil {
		fatalf("build: %v", err)
	}

	ctx := context.Background()
	if key != "" {
		_, err = g.ValidateRecordWithKey(ctx, collection, key, record)
	} else {
		_, err = g.ValidateRecord(ctx, collection, record)
	}
	if err == nil {
		fmt.Println("valid")
		return
	}
	reportIssues(err)
}

// reportIssues prints each issue as "code path message" and exits 1; errors
// outside the Issues family go through fatalf unchanged.
func reportIssues(err error) {
	iss, ok := lexicon.AsIssues(err)
	if !ok {
		fatalf("%v", err)
	}
	for _, it := range iss {
		fmt.Fprintf(os.Stderr, "%s %s %s\n", it.Code, it.Path, it.Message)
	}
	os.Exit(1)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
