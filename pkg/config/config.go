// Package config implements configuration parsing for the imgfilter tools.
//
// Each tool describes its settings as a struct whose fields carry `flag`,
// `default` and `usage` tags. Values are resolved in this order, later
// sources winning: tag defaults, the TOML configuration file, environment
// variables, command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
)

const envPrefix = "IMGFILTER_"

// DefaultFile is read when present and no other file is named.
const DefaultFile = "imgfilter.toml"

// Display configures the preview window.
type Display struct {
	Enabled   bool   `toml:"enabled"    flag:"display"            default:"true" usage:"Show the result and wait for a key press"`
	Title     string `toml:"title"      flag:"window-title"       default:""     usage:"Preview window title"`
	MaxWidth  int64  `toml:"max_width"  flag:"display-max-width"  default:"0"    usage:"Downscale the preview to this width (0 keeps the size)"`
	MaxHeight int64  `toml:"max_height" flag:"display-max-height" default:"0"    usage:"Downscale the preview to this height (0 keeps the size)"`
}

// Report configures the plain-text results file.
type Report struct {
	Dir    string `toml:"dir"    flag:"report-dir"    default:""  usage:"Directory for results files (empty disables)"`
	Prefix string `toml:"prefix" flag:"report-prefix" default:""  usage:"Results file name prefix"`
}

// Redis configures the run journal.
type Redis struct {
	Addr   string `toml:"addr"   flag:"redis-addr"   default:""               usage:"Redis address for the run journal (empty disables)"`
	Stream string `toml:"stream" flag:"redis-stream" default:"imgfilter:runs" usage:"Redis stream holding run records"`
}

// Grayscale configures the grayscale converter.
type Grayscale struct {
	File string `toml:"-" flag:"config" default:"imgfilter.toml" usage:"The path to the configuration file"`

	Input   string `toml:"input"   flag:"input"   default:"1.jpg"  usage:"Colour image to convert"`
	Output  string `toml:"output"  flag:"output"  default:"4.jpeg" usage:"Where to write the grayscale image"`
	Backend string `toml:"backend" flag:"backend" default:"native" usage:"Filter backend: native or opencv"`

	Display Display `toml:"display"`
	Report  Report  `toml:"report"`
	Redis   Redis   `toml:"redis"`
}

// Blur configures the iterative blur filter.
type Blur struct {
	File string `toml:"-" flag:"config" default:"imgfilter.toml" usage:"The path to the configuration file"`

	Input    string `toml:"input"     flag:"input"     default:"1.bmp"   usage:"Image to blur, read as grayscale"`
	Output   string `toml:"output"    flag:"output"    default:"111.bmp" usage:"Where to write the blurred image"`
	Backend  string `toml:"backend"   flag:"backend"   default:"native"  usage:"Filter backend: native or opencv"`
	Workers  int64  `toml:"workers"   flag:"workers"   default:"1"       usage:"Row tile workers per pass"`
	TileRows int64  `toml:"tile_rows" flag:"tile-rows" default:"64"      usage:"Rows per tile when workers > 1"`

	Display Display `toml:"display"`
	Report  Report  `toml:"report"`
	Redis   Redis   `toml:"redis"`
}

// Bitplanes configures the bit-plane tool.
type Bitplanes struct {
	File string `toml:"-" flag:"config" default:"imgfilter.toml" usage:"The path to the configuration file"`

	Input  string `toml:"input"  flag:"input"  default:"input/1.jpeg" usage:"Image to split"`
	Dir    string `toml:"dir"    flag:"dir"    default:"output"       usage:"Directory holding the plane files"`
	Index  int64  `toml:"index"  flag:"index"  default:"1"            usage:"1-based image number; planes are files 6*(index-1)+1 .. 6*index"`
	Output string `toml:"output" flag:"output" default:"restored/1.bmp" usage:"Restored or generated image path"`
	Seed   int64  `toml:"seed"   flag:"seed"   default:"1"            usage:"Random seed for dithering"`
	Width  int64  `toml:"width"  flag:"width"  default:"500"          usage:"Test pattern width"`
	Height int64  `toml:"height" flag:"height" default:"500"          usage:"Test pattern height"`
}

// Runs configures the journal viewer.
type Runs struct {
	File string `toml:"-" flag:"config" default:"imgfilter.toml" usage:"The path to the configuration file"`

	Count int64 `toml:"count" flag:"count" default:"10" usage:"Number of records to list"`
	Redis Redis `toml:"redis"`
}

// Parse fills cfg, a pointer to one of the configuration structs, from
// defaults, the configuration file, the environment and args. It returns the
// arguments left after flag parsing.
func Parse(name string, args []string, cfg interface{}) ([]string, error) {
	value := reflect.ValueOf(cfg)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("config: %T is not a pointer to a struct", cfg)
	}
	value = value.Elem()

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	// Callers report errors themselves and print Usage on flag.ErrHelp
	flags.SetOutput(io.Discard)
	if err := setupFlags(flags, value); err != nil {
		return nil, err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// Parse environment
	setUnsetFlagsFromEnv(flags)

	// Set default in our instance
	if err := setDefaults(value); err != nil {
		return nil, err
	}

	// Override values with config file
	if err := parseConfigFile(flags, cfg); err != nil {
		return nil, err
	}

	// Override values with flags (including environment)
	if err := setFromFlags(flags, value); err != nil {
		return nil, err
	}

	return flags.Args(), nil
}

// Usage writes the flag documentation for cfg to w.
func Usage(w io.Writer, name string, cfg interface{}) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(w)
	if err := setupFlags(flags, reflect.ValueOf(cfg).Elem()); err != nil {
		fmt.Fprintln(w, err)
		return
	}
	flags.PrintDefaults()
}

func parseConfigFile(flags *flag.FlagSet, cfg interface{}) error {
	f := flags.Lookup("config")
	if f == nil || f.Value.String() == "" {
		return nil
	}

	configFile := f.Value.String()
	_, err := toml.DecodeFile(configFile, cfg)
	if errors.Is(err, os.ErrNotExist) && !wasSet(flags, "config") {
		log.Printf("Config file '%s' does not exist and will not be used.", configFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", configFile, err)
	}

	return nil
}

func setUnsetFlagsFromEnv(flags *flag.FlagSet) {
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	flags.VisitAll(func(f *flag.Flag) {
		if !set[f.Name] {
			if val := envValueForFlag(f.Name); val != "" {
				flags.Set(f.Name, val)
			}
		}
	})
}

func envValueForFlag(name string) string {
	key := envPrefix + strings.ToUpper(strings.Replace(name, "-", "_", -1))
	return os.Getenv(key)
}

func wasSet(flags *flag.FlagSet, name string) bool {
	found := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})

	return found
}
