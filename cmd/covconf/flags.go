package main

import (
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/covconf/internal/application"
	"github.com/eugenenazirov/covconf/internal/config"
)

// cli binds the kingpin flag surface to the inputs the commands consume.
type cli struct {
	app    *kingpin.Application
	inputs config.CLIInputs

	show       *kingpin.CmdClause
	showFormat string

	check      *kingpin.CmdClause
	checkPaths []string

	serve    *kingpin.CmdClause
	serveCfg application.ServeConfig
}

func newCLI() *cli {
	c := &cli{
		app:      kingpin.New("covconf", "Resolve coverage tool configuration profiles"),
		serveCfg: application.DefaultServeConfig(),
	}
	app := c.app
	in := &c.inputs

	app.Flag("manifest-path", "Path to the project manifest").PlaceHolder("PATH").StringVar(&in.ManifestPath)
	app.Flag("root", "Project root, relative roots are resolved against the working directory").Short('r').PlaceHolder("DIR").StringVar(&in.Root)
	app.Flag("config", "Path to a TOML or YAML profile file").Envar("COVCONF_CONFIG").PlaceHolder("FILE").StringVar(&in.ConfigPath)
	app.Flag("profile", "Profile to select from the config file").Envar("COVCONF_PROFILE").StringVar(&in.Profile)
	app.Flag("run-types", "Test targets to collect coverage on ("+strings.Join(config.RunTypeNames(), ", ")+")").StringsVar(&in.RunTypes)

	app.Flag("ignored", "Run ignored tests as well").Short('i').BoolVar(&in.Ignored)
	app.Flag("ignore-tests", "Ignore lines of test functions when collecting coverage").BoolVar(&in.IgnoreTests)
	app.Flag("ignore-panics", "Ignore panic macros in tests").BoolVar(&in.IgnorePanics)
	app.Flag("force-clean", "Clean the build before collecting coverage").BoolVar(&in.ForceClean)
	app.Flag("verbose", "Show extra output").Short('v').BoolVar(&in.Verbose)
	app.Flag("debug", "Show debug output, implies --verbose").BoolVar(&in.Debug)
	app.Flag("count", "Count hits in coverage").BoolVar(&in.Count)
	app.Flag("line", "Line coverage").Short('l').BoolVar(&in.Line)
	app.Flag("branch", "Branch coverage").Short('b').BoolVar(&in.Branch)
	app.Flag("forward", "Forward unexpected signals to the test binary").Short('f').BoolVar(&in.Forward)

	app.Flag("coveralls", "Coveralls key").Envar("COVERALLS_REPO_TOKEN").PlaceHolder("KEY").StringVar(&in.Coveralls)
	app.Flag("ciserver", "CI server name reported to coveralls").PlaceHolder("SERVICE").StringVar(&in.CITool)
	app.Flag("report-uri", "URI to send the report to instead of coveralls").PlaceHolder("URI").StringVar(&in.ReportURI)

	app.Flag("all-features", "Build all available features").BoolVar(&in.AllFeatures)
	app.Flag("no-default-features", "Do not include default features").BoolVar(&in.NoDefaultFeatures)
	app.Flag("features", "Features to be included in the target project").StringsVar(&in.Features)
	app.Flag("unstable-features", "Unstable features to activate").Short('Z').StringsVar(&in.UnstableFeatures)
	app.Flag("all", "Build all packages in the workspace").BoolVar(&in.All)
	app.Flag("workspace", "Alias for --all").BoolVar(&in.Workspace)
	app.Flag("packages", "Packages to build").Short('p').StringsVar(&in.Packages)
	app.Flag("exclude", "Packages to exclude, glob patterns allowed").Short('e').StringsVar(&in.Exclude)
	app.Flag("exclude-files", "Source file patterns to exclude from coverage").StringsVar(&in.ExcludeFiles)

	app.Flag("timeout", "Test timeout, in seconds or as a duration such as 90s").Short('t').StringVar(&in.Timeout)
	app.Flag("release", "Build in release mode").BoolVar(&in.Release)
	app.Flag("no-run", "Compile tests but do not run coverage").BoolVar(&in.NoRun)
	app.Flag("locked", "Require the lock file to be up to date").BoolVar(&in.Locked)
	app.Flag("frozen", "Require the lock file and cache to be up to date").BoolVar(&in.Frozen)
	app.Flag("offline", "Run without network access").BoolVar(&in.Offline)
	app.Flag("target-dir", "Directory for all generated artifacts").PlaceHolder("DIR").StringVar(&in.TargetDir)

	app.Flag("out", "Output formats ("+strings.Join(config.OutputFileNames(), ", ")+")").Short('o').StringsVar(&in.Generate)
	app.Flag("output-dir", "Directory for generated reports").PlaceHolder("DIR").StringVar(&in.OutputDirectory)

	c.show = app.Command("show", "Print the resolved profile").Default()
	c.show.Flag("format", "Encoding of the printed profile").Default(string(config.FormatTOML)).
		EnumVar(&c.showFormat, string(config.FormatTOML), string(config.FormatYAML))
	c.show.Arg("args", "Arguments passed to the test binary").StringsVar(&in.Varargs)

	c.check = app.Command("check", "Report the base-relative form and exclusion decision for source paths")
	c.check.Arg("paths", "Source paths to check").Required().StringsVar(&c.checkPaths)

	c.serve = app.Command("serve", "Serve profile queries over HTTP")
	c.serve.Flag("addr", "Address the HTTP server listens on").Default(c.serveCfg.Addr).StringVar(&c.serveCfg.Addr)
	c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("200").Float64Var(&c.serveCfg.RateLimitRPS)
	c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("400").IntVar(&c.serveCfg.RateLimitBurst)
	c.serve.Flag("shutdown-grace", "Time allowed for in-flight requests on shutdown").Default(c.serveCfg.ShutdownGracePeriod.String()).DurationVar(&c.serveCfg.ShutdownGracePeriod)
	c.serve.Flag("access-log", "Log every request").Default("true").BoolVar(&c.serveCfg.EnableRequestLogging)

	return c
}
