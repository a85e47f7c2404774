// Command drcov is the CLI tool for the drcovkit coverage toolkit.
// It reads, converts, merges, and databases DrCov coverage files; all format
// work is done by the core/drcov library, this binary only presents it.
package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/drcovkit/core/covdb"
	"github.com/FocuswithJustin/drcovkit/core/drcov"
	"github.com/FocuswithJustin/drcovkit/internal/digest"
	"github.com/FocuswithJustin/drcovkit/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for drcov.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text"`

	Read    ReadCmd     `cmd:"" help:"Read a coverage file and print a summary"`
	Convert ConvertCmd  `cmd:"" help:"Rewrite a coverage file under a different module table version"`
	Merge   MergeCmd    `cmd:"" help:"Union coverage files that share a module table"`
	Digest  DigestCmd   `cmd:"" help:"Print the canonical BLAKE3 digest of a coverage file"`
	DB      DBGroup     `cmd:"" help:"Coverage database operations (ingest, runs, stats)"`
	Golden  GoldenGroup `cmd:"" help:"Golden digest operations"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// DBGroup contains coverage database operations.
type DBGroup struct {
	Ingest DBIngestCmd `cmd:"" help:"Ingest coverage files into the database"`
	Runs   DBRunsCmd   `cmd:"" help:"List ingested runs"`
	Stats  DBStatsCmd  `cmd:"" help:"Aggregate per-module coverage across runs"`
}

// GoldenGroup contains golden digest operations.
type GoldenGroup struct {
	Save  GoldenSaveCmd  `cmd:"" help:"Save a coverage file's canonical digest"`
	Check GoldenCheckCmd `cmd:"" help:"Check a coverage file against a saved digest"`
}

// ReadCmd reads one coverage file and prints its contents.
type ReadCmd struct {
	File     string `arg:"" help:"Path to the coverage file" type:"existingfile"`
	Detailed bool   `short:"d" help:"Print detailed list of all basic blocks"`
	Module   string `short:"m" help:"Filter and show details for modules matching a name substring"`
}

func (c *ReadCmd) Run() error {
	doc, err := drcov.FromFile(c.File)
	if err != nil {
		return err
	}

	fmt.Println("=== DrCov File Analysis ===")
	fmt.Printf("File: %s\n", c.File)
	fmt.Printf("Version: %d\n", doc.Version)
	fmt.Printf("Flavor: %s\n", doc.Flavor)
	fmt.Printf("Module Table Version: %d\n", int(doc.TableVersion))
	fmt.Println()

	fmt.Println("=== Summary ===")
	fmt.Printf("Total Modules: %d\n", len(doc.Modules))
	fmt.Printf("Total Basic Blocks: %d\n", len(doc.BasicBlocks))
	fmt.Printf("Total Coverage: %d bytes\n", doc.TotalCoveredBytes())
	fmt.Println()

	fmt.Println("=== Module Coverage ===")
	fmt.Printf("%-4s %-8s %-12s %-20s Name\n", "ID", "Blocks", "Size", "Base Address")
	fmt.Println(strings.Repeat("-", 80))

	counts := doc.HitCounts()
	for i := range doc.Modules {
		m := &doc.Modules[i]
		fmt.Printf("%-4d %-8d %-12s 0x%016x %s\n",
			m.ID, counts[uint16(m.ID)],
			fmt.Sprintf("%d bytes", doc.CoveredBytes(uint16(m.ID))),
			m.Base, m.Path)
	}
	fmt.Println()

	if c.Detailed {
		fmt.Println("=== Detailed Basic Blocks ===")
		fmt.Printf("%-8s %-14s %-8s %-18s Module Name\n", "Module", "Offset", "Size", "Absolute Addr")
		fmt.Println(strings.Repeat("-", 80))
		for _, bb := range doc.BasicBlocks {
			if m := doc.FindModule(bb.ModuleID); m != nil {
				fmt.Printf("%-8d 0x%-11x %-8d 0x%-15x %s\n",
					bb.ModuleID, bb.Start, bb.Size, bb.AbsoluteAddress(m), m.Path)
			}
		}
		fmt.Println()
	}

	if c.Module != "" {
		fmt.Printf("=== Module-Specific Analysis: %s ===\n", c.Module)
		found := false
		for i := range doc.Modules {
			m := &doc.Modules[i]
			if !strings.Contains(m.Path, c.Module) {
				continue
			}
			found = true
			fmt.Printf("Module ID: %d\n", m.ID)
			fmt.Printf("Name: %s\n", m.Path)
			fmt.Printf("Base: 0x%x\n", m.Base)
			fmt.Printf("End: 0x%x\n", m.End)
			fmt.Printf("Size: %d bytes\n", m.Size())
			fmt.Printf("Covered Blocks: %d\n", counts[uint16(m.ID)])
			fmt.Printf("Covered Bytes: %d\n", doc.CoveredBytes(uint16(m.ID)))
			fmt.Println()
		}
		if !found {
			fmt.Printf("No modules found matching: %s\n", c.Module)
		}
	}
	return nil
}

// ConvertCmd rewrites a coverage file under a different table version.
type ConvertCmd struct {
	In  string `arg:"" help:"Input coverage file" type:"existingfile"`
	Out string `arg:"" help:"Output coverage file" type:"path"`
	To  int    `required:"" help:"Target module table version (1-4)"`
}

func (c *ConvertCmd) Run() error {
	doc, err := drcov.FromFile(c.In)
	if err != nil {
		return err
	}
	converted, err := drcov.ConvertVersion(doc, drcov.TableVersion(c.To))
	if err != nil {
		return err
	}
	if err := drcov.ToFile(converted, c.Out); err != nil {
		return err
	}
	logging.Info("converted coverage file",
		"in", c.In, "out", c.Out,
		"from", int(doc.TableVersion), "to", c.To)
	return nil
}

// MergeCmd unions coverage files over one module table.
type MergeCmd struct {
	Inputs []string `arg:"" help:"Coverage files to merge" type:"existingfile"`
	Out    string   `required:"" short:"o" help:"Output coverage file" type:"path"`
}

func (c *MergeCmd) Run() error {
	docs := make([]*drcov.Document, 0, len(c.Inputs))
	for _, path := range c.Inputs {
		doc, err := drcov.FromFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	merged, err := drcov.Merge(docs...)
	if err != nil {
		return err
	}
	if err := drcov.ToFile(merged, c.Out); err != nil {
		return err
	}
	logging.Info("merged coverage files",
		"inputs", len(c.Inputs), "out", c.Out, "blocks", len(merged.BasicBlocks))
	return nil
}

// DigestCmd prints the canonical digest of a coverage file.
type DigestCmd struct {
	File string `arg:"" help:"Path to the coverage file" type:"existingfile"`
}

func (c *DigestCmd) Run() error {
	doc, err := drcov.FromFile(c.File)
	if err != nil {
		return err
	}
	sum, err := digest.Document(doc)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", sum, c.File)
	return nil
}

// DBIngestCmd ingests coverage files into the database.
type DBIngestCmd struct {
	Database string   `help:"Path to the coverage database" default:"coverage.db" type:"path"`
	Files    []string `arg:"" help:"Coverage files to ingest" type:"existingfile"`
}

func (c *DBIngestCmd) Run() error {
	store, err := covdb.Open(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range c.Files {
		doc, err := drcov.FromFile(path)
		if err != nil {
			return err
		}
		run, created, err := store.Ingest(doc)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Ingested: %s\n", path)
			fmt.Printf("  Run: %s\n", run.ID)
		} else {
			fmt.Printf("Already ingested: %s\n", path)
			fmt.Printf("  Run: %s\n", run.ID)
		}
	}
	return nil
}

// DBRunsCmd lists ingested runs.
type DBRunsCmd struct {
	Database string `help:"Path to the coverage database" default:"coverage.db" type:"existingfile"`
}

func (c *DBRunsCmd) Run() error {
	store, err := covdb.Open(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs ingested.")
		return nil
	}
	fmt.Printf("%-36s %-20s %-8s %-8s Flavor\n", "Run", "Created", "Modules", "Blocks")
	fmt.Println(strings.Repeat("-", 90))
	for _, run := range runs {
		fmt.Printf("%-36s %-20s %-8d %-8d %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Modules, run.Blocks, run.Flavor)
	}
	return nil
}

// DBStatsCmd prints per-module aggregates across runs.
type DBStatsCmd struct {
	Database string `help:"Path to the coverage database" default:"coverage.db" type:"existingfile"`
}

func (c *DBStatsCmd) Run() error {
	store, err := covdb.Open(c.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("%-6s %-8s %-14s Module\n", "Runs", "Blocks", "Bytes")
	fmt.Println(strings.Repeat("-", 80))
	for _, st := range stats {
		fmt.Printf("%-6d %-8d %-14d %s\n", st.Runs, st.Blocks, st.CoveredBytes, st.Path)
	}
	return nil
}

// GoldenSaveCmd saves a coverage file's canonical digest.
type GoldenSaveCmd struct {
	File string `arg:"" help:"Path to the coverage file" type:"existingfile"`
	Out  string `arg:"" help:"Golden digest file to write" type:"path"`
}

func (c *GoldenSaveCmd) Run() error {
	doc, err := drcov.FromFile(c.File)
	if err != nil {
		return err
	}
	sum, err := digest.Document(doc)
	if err != nil {
		return err
	}
	if err := digest.SaveGolden(c.Out, sum); err != nil {
		return err
	}
	fmt.Printf("Golden saved: %s\n", c.Out)
	fmt.Printf("  File: %s\n", c.File)
	fmt.Printf("  Digest: %s\n", sum)
	return nil
}

// GoldenCheckCmd checks a coverage file against a saved digest.
type GoldenCheckCmd struct {
	File   string `arg:"" help:"Path to the coverage file" type:"existingfile"`
	Golden string `arg:"" help:"Golden digest file to check against" type:"existingfile"`
}

func (c *GoldenCheckCmd) Run() error {
	doc, err := drcov.FromFile(c.File)
	if err != nil {
		return err
	}
	sum, err := digest.Document(doc)
	if err != nil {
		return err
	}
	want, err := digest.ReadGolden(c.Golden)
	if err != nil {
		return err
	}

	fmt.Printf("Checking against golden: %s\n", c.Golden)
	fmt.Printf("  File: %s\n", c.File)
	fmt.Printf("  Expected: %s\n", want)
	fmt.Printf("  Actual:   %s\n", sum)
	fmt.Println()

	if sum == want {
		fmt.Println("Result: PASS")
		return nil
	}
	fmt.Println("Result: FAIL")
	return fmt.Errorf("golden mismatch")
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("drcov %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("drcov"),
		kong.Description("drcovkit - DrCov coverage file toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	err = ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
