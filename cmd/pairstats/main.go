// Command pairstats inspects a pair catalog: it loads the catalog, prints
// identity-group statistics and plots the group-size distribution.
//
// Rows whose identity group has a single member can only ever be paired
// with themselves, so the singleton count is the number worth watching
// when preparing training data.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/visum-ml/stochpair/catalog"
)

func main() {
	root := flag.String("root", ".", "data root directory that relative catalog paths resolve against")
	csvPath := flag.String("csv", "", "catalog CSV file (required)")
	columns := flag.String("columns", "character_id,relative_file_path_",
		"comma-separated catalog column names; roles are inferred from the names. Empty string infers names from the header row")
	hasHeader := flag.Bool("has-header", false, "first catalog line is a header row")
	outPlot := flag.String("out", "group_sizes.png", "output path for the group-size histogram; empty skips plotting")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var schema catalog.Schema
	if *columns != "" {
		names := strings.Split(*columns, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		schema = catalog.InferRoles(names)
	}

	cat, err := catalog.Load(*root, *csvPath, schema, *hasHeader)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	groups := cat.Groups()
	sizes := make([]int, 0, len(groups))
	singletons := 0
	largest, largestKey := 0, ""
	for key, idxs := range groups {
		sizes = append(sizes, len(idxs))
		if len(idxs) == 1 {
			singletons++
		}
		if len(idxs) > largest {
			largest, largestKey = len(idxs), key
		}
	}
	sort.Ints(sizes)

	fmt.Printf("catalog: %s\n", *csvPath)
	fmt.Printf("rows: %d\n", cat.Len())
	fmt.Printf("identities: %d\n", len(groups))
	if len(sizes) > 0 {
		fmt.Printf("group size min/median/max: %d / %d / %d (largest: %q)\n",
			sizes[0], sizes[len(sizes)/2], largest, largestKey)
	}
	fmt.Printf("singleton identities (pair with self only): %d\n", singletons)

	if *outPlot == "" {
		return
	}
	if err := plotGroupSizes(sizes, *outPlot); err != nil {
		log.Fatalf("failed to plot group sizes: %v", err)
	}
	fmt.Printf("wrote %s\n", *outPlot)
}

// plotGroupSizes writes a histogram of identity-group sizes.
func plotGroupSizes(sizes []int, outPath string) error {
	values := make(plotter.Values, len(sizes))
	for i, s := range sizes {
		values[i] = float64(s)
	}

	p := plot.New()
	p.Title.Text = "Identity group sizes"
	p.X.Label.Text = "rows per identity"
	p.Y.Label.Text = "identities"

	bins := 16
	if len(sizes) < bins {
		bins = len(sizes)
	}
	if bins < 1 {
		bins = 1
	}
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return err
	}
	p.Add(hist)

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, outPath)
}
