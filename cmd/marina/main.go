package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/parser"
	"github.com/wbrown/marina-sql/marina/rules"
	"github.com/wbrown/marina-sql/marina/search"
	"github.com/wbrown/marina-sql/marina/storage"
	"github.com/wbrown/marina-sql/marina/trace"
)

func main() {
	var catalogPath string
	var xmlPath string
	var interactive bool
	var verbose bool
	var queryStr string
	var orderBy string

	flag.StringVar(&catalogPath, "catalog", "", "catalog database path (built with build-catalog)")
	flag.StringVar(&xmlPath, "xml", "", "catalog XML file (loaded directly, no database needed)")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.BoolVar(&verbose, "verbose", false, "verbose mode (show search events)")
	flag.StringVar(&queryStr, "query", "", "optimize a single query and exit")
	flag.StringVar(&orderBy, "order", "", "required output order, e.g. S.sid")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A cost-based query optimizer shell.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -xml sailors.xml -i\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -catalog catalog.db -query '(EQJOIN(S.sid, R.sid), GET(Sailors, S), GET(Reserves, R))'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -xml sailors.xml -order S.sid -query 'GET(Sailors, S)'\n", os.Args[0])
	}
	flag.Parse()

	var provider catalog.Provider
	switch {
	case xmlPath != "":
		cat, err := catalog.LoadXMLFile(xmlPath)
		if err != nil {
			log.Fatalf("Failed to load catalog XML: %v", err)
		}
		provider = cat
	case catalogPath != "":
		store, err := storage.Open(catalogPath)
		if err != nil {
			log.Fatalf("Failed to open catalog database: %v", err)
		}
		defer store.Close()
		provider = store
	default:
		flag.Usage()
		os.Exit(1)
	}

	var handler trace.Handler
	if verbose {
		handler = trace.NewOutputFormatter(os.Stderr)
	}
	opt := search.NewOptimizer(rules.NewSet(), nil, search.Options{Handler: handler})

	required := marina.AnyProperties()
	if orderBy != "" {
		required = marina.RequireOrder(marina.OrderedBy(strings.Split(orderBy, ",")...))
	}

	if queryStr != "" {
		runQuery(opt, provider, queryStr, required, true)
		return
	}
	if interactive {
		runInteractive(opt, provider, required)
		return
	}
	printCatalog(provider)
	fmt.Println("Use -i for interactive mode or -query to optimize a query.")
}

func runQuery(opt *search.Optimizer, provider catalog.Provider, queryStr string, required marina.PhysicalProperties, explain bool) {
	q, err := parser.ParseAndResolve(queryStr, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	plan, err := opt.Optimize(q, required)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if explain {
		fmt.Println(plan.Render())
	} else {
		fmt.Print(plan.String())
	}
	fmt.Printf("estimated cost: %s\n", plan.Cost)
}

func runInteractive(opt *search.Optimizer, provider catalog.Provider, required marina.PhysicalProperties) {
	fmt.Println("Marina query optimizer. Type a query, or a command:")
	fmt.Println("  :catalog        list tables")
	fmt.Println("  :memo           dump the memo of the last optimization")
	fmt.Println("  :rules          list rules")
	fmt.Println("  :disable NAME   disable a rule   :enable NAME   re-enable it")
	fmt.Println("  :order COLS     require output order (:order - to clear)")
	fmt.Println("  :quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case line == ":quit" || line == ":q":
			return
		case line == ":catalog":
			printCatalog(provider)
		case line == ":memo":
			if opt.SearchSpace() == nil {
				fmt.Println("no optimization has run yet")
			} else {
				fmt.Print(opt.SearchSpace().String())
			}
		case line == ":rules":
			for _, r := range opt.Rules().Rules() {
				state := "enabled"
				if !r.Enabled() {
					state = "disabled"
				}
				kind := "implementation"
				if r.IsTransformation() {
					kind = "transformation"
				}
				fmt.Printf("  %-28s %-15s %s\n", r.Name(), kind, state)
			}
		case strings.HasPrefix(line, ":disable "):
			toggleRule(opt, strings.TrimSpace(strings.TrimPrefix(line, ":disable ")), false)
		case strings.HasPrefix(line, ":enable "):
			toggleRule(opt, strings.TrimSpace(strings.TrimPrefix(line, ":enable ")), true)
		case strings.HasPrefix(line, ":order"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, ":order"))
			if arg == "" || arg == "-" {
				required = marina.AnyProperties()
				fmt.Println("required order cleared")
			} else {
				required = marina.RequireOrder(marina.OrderedBy(strings.Split(arg, ",")...))
				fmt.Printf("required order: %s\n", required)
			}
		default:
			runQuery(opt, provider, line, required, true)
		}
	}
}

func toggleRule(opt *search.Optimizer, name string, enabled bool) {
	if err := opt.Rules().SetEnabled(name, enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func printCatalog(provider catalog.Provider) {
	fmt.Printf("Catalog (page size %d):\n", provider.PageSize())
	for _, t := range provider.Tables() {
		fmt.Printf("  %s (%d tuples, %d pages)\n", t.Name, t.Stats.Cardinality, t.Stats.Pages)
		for _, c := range t.Columns {
			fmt.Printf("    %-12s %s\n", c.Name, c.Type)
		}
		for _, ix := range t.Indexes {
			clustered := ""
			if ix.Clustered {
				clustered = " clustered"
			}
			fmt.Printf("    index %s (%s%s) on %s\n", ix.Name, ix.Kind, clustered, strings.Join(ix.KeyColumns, ", "))
		}
	}
}
