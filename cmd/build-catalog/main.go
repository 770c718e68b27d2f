package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/storage"
)

func main() {
	xmlPath := flag.String("xml", "", "catalog XML file to compile")
	outPath := flag.String("out", "catalog.db", "output catalog database path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -xml catalog.xml [-out catalog.db]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles a system catalog XML file into a Badger catalog database.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *xmlPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cat, err := catalog.LoadXMLFile(*xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Building catalog database: %s\n", *outPath)
	fmt.Printf("  Page size: %d\n", cat.PageSize())
	for _, t := range cat.Tables() {
		fmt.Printf("  %s: %d tuples, %d pages, %d columns, %d indexes\n",
			t.Name, t.Stats.Cardinality, t.Stats.Pages, len(t.Columns), len(t.Indexes))
	}

	if err := storage.Build(*outPath, cat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build catalog database: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nDone! Use this catalog with:")
	fmt.Printf("   marina -catalog %s\n", *outPath)
}
