// meshc converts OBJ and glTF meshes into compact quantized binary blobs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshc/internal/assets"
	"github.com/Faultbox/meshc/internal/config"
	"github.com/Faultbox/meshc/internal/export"
	"github.com/Faultbox/meshc/internal/logger"
	"github.com/Faultbox/meshc/pkg/formats"
	"github.com/Faultbox/meshc/pkg/geometry"
	"github.com/Faultbox/meshc/pkg/gltfmesh"
	"github.com/Faultbox/meshc/pkg/obj"
	"github.com/Faultbox/meshc/pkg/palette"
	"github.com/Faultbox/meshc/pkg/quantize"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export", "x":
		cmdExport(args)
	case "inspect", "info":
		cmdInspect(args)
	case "cells":
		cmdCells(args)
	case "profiles":
		cmdProfiles()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshc - quantized mesh exporter

Usage:
  meshc <command> [options]

Commands:
  export [options] <file>...      Export meshes from .obj, .gltf or .glb files
  inspect -profile p [-n N] <file.data>
                                  Show the sections of an exported blob
  cells [-atlas name] <file>      Show palette cell usage of each mesh
  profiles                        List output profiles

Export options:
  -config f    Config file (default ./meshc.yaml, then the user config dir)
  -profile p   Output profile
  -out dir     Output directory
  -atlas name  Palette atlas image
  -mesh name   Only export meshes with this name
  -report      Write <mesh>.colors.yaml for color-sampling profiles
  -debug       Enable debug logging

Examples:
  meshc export -profile reflective -atlas palette.png props.glb
  meshc inspect -profile reflective out/Barrel.data
  meshc cells -atlas palette.png crate.obj`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	only := fs.String("mesh", "", "Only export meshes with this name")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshc export [options] <file>...")
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fatalf("%v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	lib := newLibrary(cfg, fs.Args())
	defer lib.Close()

	providers, err := loadProviders(fs.Args(), cfg.Source.NameEncoding)
	if err != nil {
		fatalf("%v", err)
	}
	if *only != "" {
		providers = filterByName(providers, *only)
		if len(providers) == 0 {
			fatalf("no mesh named %q", *only)
		}
	}

	logger.Log.Info("exporting",
		zap.Int("meshes", len(providers)),
		zap.Stringer("profile", cfg.Export.Profile),
		zap.String("out", cfg.Export.OutputDir))

	results, err := export.New(cfg, lib, logger.Log).ExportAll(providers)
	for _, r := range results {
		fmt.Printf("%-24s %6d verts %6d tris", r.Mesh, r.Vertices, r.Triangles)
		if r.Saturated > 0 {
			fmt.Printf("  (%d saturated)", r.Saturated)
		}
		fmt.Println()
		for _, f := range r.Files {
			fmt.Printf("  -> %s\n", f)
		}
	}
	if err != nil {
		logger.Sync()
		fatalf("%d of %d meshes failed:\n  %s", len(providers)-len(results), len(providers),
			strings.ReplaceAll(err.Error(), "; ", "\n  "))
	}
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	profileName := fs.String("profile", "", "Profile the blob was written with")
	dump := fs.Int("n", 0, "Print the first N decoded vertices")
	fs.Parse(args)

	if fs.NArg() < 1 || *profileName == "" {
		fmt.Fprintln(os.Stderr, "Usage: meshc inspect -profile p <file.data>")
		os.Exit(1)
	}

	profile, err := formats.ParseProfile(*profileName)
	if err != nil {
		fatalf("%v", err)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	blob, err := formats.Parse(profile, data)
	if err != nil {
		fatalf("%s: %v", fs.Arg(0), err)
	}

	layout := profile.Layout()
	fmt.Printf("File:      %s\n", fs.Arg(0))
	fmt.Printf("Profile:   %s (%s)\n", profile, layout.Encoding)
	fmt.Printf("Size:      %d bytes\n", len(data))
	fmt.Printf("Vertices:  %d\n", blob.VertexCount())
	fmt.Printf("Triangles: %d\n", blob.TriangleCount())
	fmt.Printf("Offsets:   indices=%d coords=%d normals=%d uvs=%d\n",
		blob.Offsets[0], blob.Offsets[1], blob.Offsets[2], blob.Offsets[3])
	if layout.Reflection {
		c := blob.ReflectionColor
		fmt.Printf("Reflection: %.3f %.3f %.3f\n", c[0], c[1], c[2])
	}
	if layout.Rotation {
		r := blob.Rotation
		fmt.Printf("Rotation:  %.4f %.4f %.4f %.4f\n", r[0], r[1], r[2], r[3])
	}
	if layout.Scale {
		s := blob.Scale
		fmt.Printf("Scale:     %.4f %.4f %.4f\n", s[0], s[1], s[2])
	}
	if layout.Majority {
		fmt.Printf("Majority:  cell %d\n", blob.Majority)
	}

	n := min(*dump, blob.VertexCount())
	for i := 0; i < n; i++ {
		fmt.Printf("  %4d  pos %s  cell %3d\n", i, decodeVertex(blob, layout, i), blob.UVs[i])
	}
}

// decodeVertex renders vertex i in source units where the blob allows it:
// world coordinates for World16, offsets from the box minimum when an int8
// blob carries its scale, raw values otherwise.
func decodeVertex(b *formats.Blob, l formats.Layout, i int) string {
	c := b.Coords[3*i : 3*i+3]
	switch {
	case l.Encoding == quantize.World16:
		return fmt.Sprintf("%9.4f %9.4f %9.4f",
			quantize.Dequantize16(c[0]), quantize.Dequantize16(c[1]), quantize.Dequantize16(c[2]))
	case l.Encoding == quantize.BoxRelative8 && l.Scale:
		var p [3]float64
		for k := range p {
			p[k] = quantize.Dequantize8(int8(c[k]), 0, float64(b.Scale[k]))
		}
		return fmt.Sprintf("%9.4f %9.4f %9.4f", p[0], p[1], p[2])
	}
	return fmt.Sprintf("%6d %6d %6d", c[0], c[1], c[2])
}

func cmdCells(args []string) {
	fs := flag.NewFlagSet("cells", flag.ExitOnError)
	atlasName := fs.String("atlas", "", "Palette atlas image (enables color sampling)")
	charset := fs.String("charset", "", "Charset of OBJ object names")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshc cells [-atlas name] <file>")
		os.Exit(1)
	}

	var atlas *palette.Atlas
	if *atlasName != "" {
		lib := assets.NewLibrary(".", filepath.Dir(fs.Arg(0)))
		a, err := lib.Atlas(*atlasName)
		if err != nil {
			fatalf("%v", err)
		}
		atlas = a
	}

	providers, err := loadProviders(fs.Args()[:1], *charset)
	if err != nil {
		fatalf("%v", err)
	}

	for _, p := range providers {
		m, err := geometry.Extract(p, geometry.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p.Name(), err)
			continue
		}
		r, err := palette.Resolve(m, atlas, palette.Options{SampleColors: atlas != nil, Majority: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p.Name(), err)
			continue
		}

		usage := make(map[uint8]int)
		for _, c := range r.Cells {
			usage[c]++
		}
		cells := make([]int, 0, len(usage))
		for c := range usage {
			cells = append(cells, int(c))
		}
		sort.Ints(cells)

		fmt.Printf("%s: %d vertices, %d cells, majority %d", m.Name, len(m.Vertices), len(cells), r.Majority)
		if r.Clamped > 0 {
			fmt.Printf(", %d corners clamped", r.Clamped)
		}
		fmt.Println()
		for _, c := range cells {
			u, v := c%palette.GridSize, c/palette.GridSize
			fmt.Printf("  cell %3d (%2d,%2d) %5d verts\n", c, u, v, usage[uint8(c)])
		}
		for _, cc := range r.Colors {
			fmt.Printf("  color %3d  %.3f %.3f %.3f\n", cc.Cell, cc.Color.R, cc.Color.G, cc.Color.B)
		}
	}
}

func cmdProfiles() {
	fmt.Printf("%-22s %-14s %-8s %s\n", "PROFILE", "ENCODING", "TRAILER", "OUTPUT")
	for _, p := range formats.Profiles() {
		l := p.Layout()
		fmt.Printf("%-22s %-14s %-8d %s\n", p, l.Encoding, p.TrailerSize(), strings.Join(p.Extensions(), " "))
	}
}

// newLibrary searches the configured paths in order, then the directories
// of the input files.
func newLibrary(cfg *config.Config, inputs []string) *assets.Library {
	lib := assets.NewLibrary()
	seen := make(map[string]bool)
	for _, in := range inputs {
		dir := filepath.Dir(in)
		if !seen[dir] {
			seen[dir] = true
			lib.AddSearchPath(dir)
		}
	}
	paths := cfg.Atlas.SearchPaths
	for i := len(paths) - 1; i >= 0; i-- {
		lib.AddSearchPath(paths[i])
	}
	return lib
}

func loadProviders(paths []string, charset string) ([]geometry.Provider, error) {
	var out []geometry.Provider
	for _, path := range paths {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".obj":
			objs, err := obj.Open(path, obj.Options{NameCharset: charset})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for _, o := range objs {
				out = append(out, o)
			}
		case ".gltf", ".glb":
			nodes, err := gltfmesh.Open(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for _, n := range nodes {
				out = append(out, n)
			}
		default:
			return nil, fmt.Errorf("%s: unsupported file type", path)
		}
	}
	return out, nil
}

func filterByName(providers []geometry.Provider, name string) []geometry.Provider {
	var out []geometry.Provider
	for _, p := range providers {
		if p.Name() == name {
			out = append(out, p)
		}
	}
	return out
}
