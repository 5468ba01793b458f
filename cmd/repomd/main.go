// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the repomd CLI: a parallel repository
// metadata indexer that walks a tree of package archives and publishes
// primary/filelists/other XML (plus matching SQLite databases) and a
// repomd.xml manifest.
//
// Usage:
//
//	repomd [options] <directory>
//	repomd --watch [options] <directory>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	json "github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/repomd/internal/ui"
	"github.com/kraklabs/repomd/pkg/compress"
	"github.com/kraklabs/repomd/pkg/repoindex"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("repomd", flag.ContinueOnError)

	var (
		outputDir         = fs.String("outputdir", "", "Write metadata to this directory instead of <directory>")
		workers           = fs.Int("workers", 0, "Number of worker goroutines (default: number of CPUs)")
		changelogLimit    = fs.Int("changelog-limit", 10, "Maximum changelog entries retained per package")
		checksum          = fs.String("checksum", "sha256", "Checksum algorithm: md5, sha1, sha256, sha512")
		uniqueMDFilenames = fs.Bool("unique-md-filenames", false, "Prefix published filenames with their checksum")
		noDatabase        = fs.Bool("no-database", false, "Skip generating SQLite databases")
		groupFile         = fs.String("groupfile", "", "Path to a comps/group XML file to publish alongside metadata")
		compressionFlag   = fs.String("compression", "gz", "Compression algorithm: gz, bz2, xz")
		xz                = fs.Bool("xz", false, "Shorthand for --compression=xz")
		update            = fs.Bool("update", false, "Reuse metadata from a previous run when a package is unchanged")
		updateMDPaths     = fs.StringArray("update-md-path", nil, "Additional repodata directory to seed the cache from (repeatable)")
		skipStat          = fs.Bool("skip-stat", false, "Trust cached metadata without re-checking file size/mtime")
		skipSymlinks      = fs.Bool("skip-symlinks", false, "Do not follow symlinked files or directories")
		pkgList           = fs.String("pkglist", "", "Path to a file listing package paths to index explicitly")
		excludes          = fs.StringArray("excludes", nil, "Glob pattern to exclude (repeatable)")
		locationBase      = fs.String("location-base", "", "Base URL prefixed to each package's location href")
		quiet             = fs.BoolP("quiet", "q", false, "Suppress progress output")
		verbose           = fs.CountP("verbose", "v", "Increase log verbosity")
		showVersion       = fs.BoolP("version", "V", false, "Show version and exit")
		configPath        = fs.String("config", "", "Path to a .repomd.yaml config file (default: <directory>/.repomd.yaml)")
		metricsAddr       = fs.String("metrics-addr", "", "Serve Prometheus metrics on this address for the run's duration")
		jsonOutput        = fs.Bool("json", false, "Print the run summary as JSON")
		watch             = fs.Bool("watch", false, "Watch the input directory and reindex on change")
		noColor           = fs.Bool("no-color", false, "Disable colored output")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `repomd - repository metadata indexer

Usage:
  repomd [options] <directory>

Scans <directory> for package archives and publishes primary.xml,
filelists.xml, other.xml (plus matching SQLite databases) and a
repomd.xml manifest under <directory>/repodata, exactly as it would be
consumed by a package manager's repository client.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Printf("repomd version %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}
	inputDir := fs.Arg(0)

	if *configPath == "" {
		*configPath = inputDir + "/.repomd.yaml"
	}
	fc, err := loadFileConfig(*configPath)
	if err != nil {
		ui.Errorln(err.Error())
		return 1
	}
	applyFileDefaults(fs, fc, fileConfigSetters{
		outputDir: outputDir, workers: workers, changelogLimit: changelogLimit,
		checksum: checksum, uniqueMD: uniqueMDFilenames, noDatabase: noDatabase,
		groupFile: groupFile, compression: compressionFlag, update: update,
		updateMDPaths: updateMDPaths, skipStat: skipStat, skipSymlinks: skipSymlinks,
		pkgList: pkgList, excludes: excludes, locationBase: locationBase,
		metricsAddr: metricsAddr, watch: watch,
	})

	ui.InitColors(*noColor)

	if *xz {
		*compressionFlag = string(compress.XZ)
	}

	level := slog.LevelWarn
	switch {
	case *verbose >= 2:
		level = slog.LevelDebug
	case *verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := &repoindex.Config{
		InputDir:          inputDir,
		OutputDir:         *outputDir,
		Workers:           *workers,
		ChangelogLimit:    *changelogLimit,
		ChecksumType:      repoindex.ChecksumType(*checksum),
		UniqueMDFilenames: *uniqueMDFilenames,
		NoDatabase:        *noDatabase,
		GroupFile:         *groupFile,
		Compression:       compress.Algo(*compressionFlag),
		Update:            *update,
		UpdateMDPaths:     *updateMDPaths,
		SkipStat:          *skipStat,
		SkipSymlinks:      *skipSymlinks,
		PkgList:           *pkgList,
		Excludes:          *excludes,
		LocationBase:      *locationBase,
		MetricsAddr:       *metricsAddr,
	}

	var metrics *repoindex.Metrics
	if cfg.MetricsAddr != "" {
		metrics = repoindex.NewMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.server.error", "err", err)
			}
		}()
	}

	if *watch {
		if err := runWatch(cfg, logger, metrics); err != nil {
			ui.Errorln(err.Error())
			return 1
		}
		return 0
	}

	var bar *progressbar.ProgressBar
	var onProgress repoindex.ProgressFunc
	if !*quiet && !*jsonOutput {
		onProgress = func(done, total int64) {
			if bar == nil {
				bar = progressbar.Default(total, "indexing")
			}
			bar.Set64(done)
		}
	}

	result, err := repoindex.Run(context.Background(), cfg, logger, metrics, onProgress)
	if err != nil {
		if _, ok := err.(*repoindex.UsageError); ok {
			fmt.Fprintln(os.Stderr, "error:", err)
			fs.Usage()
			return 1
		}
		ui.Errorln(err.Error())
		return 1
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			ui.Errorln(err.Error())
			return 1
		}
		return 0
	}

	if !*quiet {
		ui.Header("Indexing Complete")
		fmt.Printf("%s %s\n", ui.Label("Packages Walked:"), ui.CountText(int(result.PackagesWalked)))
		fmt.Printf("%s %s\n", ui.Label("Cache Hits:"), ui.CountText(int(result.CacheHits)))
		fmt.Printf("%s %s\n", ui.Label("Cache Misses:"), ui.CountText(int(result.CacheMisses)))
		if result.Dropped > 0 {
			_, _ = ui.Yellow.Printf("Dropped: %d\n", result.Dropped)
		}
	}

	return 0
}

// fileConfigSetters bundles pointers to every flag value that a
// .repomd.yaml file is allowed to default, keyed the same way across
// applyFileDefaults so the wiring in run() stays a flat struct literal
// instead of a long argument list.
type fileConfigSetters struct {
	outputDir     *string
	workers       *int
	changelogLimit *int
	checksum      *string
	uniqueMD      *bool
	noDatabase    *bool
	groupFile     *string
	compression   *string
	update        *bool
	updateMDPaths *[]string
	skipStat      *bool
	skipSymlinks  *bool
	pkgList       *string
	excludes      *[]string
	locationBase  *string
	metricsAddr   *string
	watch         *bool
}

// applyFileDefaults overwrites a flag's current value with the
// .repomd.yaml value only when the flag was not explicitly passed on
// the command line.
func applyFileDefaults(fs *flag.FlagSet, fc *fileConfig, s fileConfigSetters) {
	set := func(name string, apply func()) {
		if !fs.Changed(name) {
			apply()
		}
	}
	if fc.OutputDir != "" {
		set("outputdir", func() { *s.outputDir = fc.OutputDir })
	}
	if fc.Workers != 0 {
		set("workers", func() { *s.workers = fc.Workers })
	}
	if fc.ChangelogLimit != 0 {
		set("changelog-limit", func() { *s.changelogLimit = fc.ChangelogLimit })
	}
	if fc.Checksum != "" {
		set("checksum", func() { *s.checksum = fc.Checksum })
	}
	set("unique-md-filenames", func() { *s.uniqueMD = *s.uniqueMD || fc.UniqueMDFilenames })
	set("no-database", func() { *s.noDatabase = *s.noDatabase || fc.NoDatabase })
	if fc.GroupFile != "" {
		set("groupfile", func() { *s.groupFile = fc.GroupFile })
	}
	if fc.Compression != "" {
		set("compression", func() { *s.compression = fc.Compression })
	}
	set("update", func() { *s.update = *s.update || fc.Update })
	if len(fc.UpdateMDPaths) > 0 {
		set("update-md-path", func() { *s.updateMDPaths = fc.UpdateMDPaths })
	}
	set("skip-stat", func() { *s.skipStat = *s.skipStat || fc.SkipStat })
	set("skip-symlinks", func() { *s.skipSymlinks = *s.skipSymlinks || fc.SkipSymlinks })
	if fc.PkgList != "" {
		set("pkglist", func() { *s.pkgList = fc.PkgList })
	}
	if len(fc.Excludes) > 0 {
		set("excludes", func() { *s.excludes = fc.Excludes })
	}
	if fc.LocationBase != "" {
		set("location-base", func() { *s.locationBase = fc.LocationBase })
	}
	if fc.MetricsAddr != "" {
		set("metrics-addr", func() { *s.metricsAddr = fc.MetricsAddr })
	}
	set("watch", func() { *s.watch = *s.watch || fc.Watch })
}
