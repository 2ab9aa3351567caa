package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/opencontainers/go-digest"
	"github.com/urfave/cli/v2"

	"github.com/meigma/rgssad"
	"github.com/meigma/rgssad/internal/keystream"
	"github.com/meigma/rgssad/internal/toc"
)

func detectCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "report the engine implied by the extension and the revision in the header",
		ArgsUsage: "ARCHIVE",
		Action: e.action("detect", func(c *cli.Context) error {
			path, err := archiveArg(c)
			if err != nil {
				return err
			}
			engine, _ := rgssad.EngineFromPath(path)

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			rev, err := rgssad.DetectRevision(f)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "extension: %s (revision %s)\n", engine, engine.Revision())
			fmt.Fprintf(e.out, "header:    revision %s\n", rev)
			if engine != rgssad.EngineUnknown && rev != rgssad.RevisionUnknown && engine.Revision() != rev {
				fmt.Fprintln(e.out, "note:      extension and header disagree; the header is used")
			}
			return nil
		}),
	}
}

func listCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list the entries of an archive",
		ArgsUsage: "ARCHIVE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "digest", Usage: "decrypt each entry and print its sha256 digest"},
		},
		Action: e.action("list", func(c *cli.Context) error {
			path, err := archiveArg(c)
			if err != nil {
				return err
			}
			a, err := rgssad.Open(path, rgssad.WithLogger(e.logger))
			if err != nil {
				return err
			}
			defer a.Close()

			var digests map[string]digest.Digest
			if c.Bool("digest") {
				if digests, err = entryDigests(a); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tOFFSET\tSIZE\tKEY")
			for _, entry := range a.Entries() {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%08x", entry.Name, entry.Offset, entry.Size, entry.Key)
				if d, ok := digests[entry.Name]; ok {
					fmt.Fprintf(tw, "\t%s", d)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		}),
	}
}

// entryDigests decrypts every entry into a tar stream that is thrown away,
// collecting the plaintext digests on the way.
func entryDigests(a *rgssad.Archive) (map[string]digest.Digest, error) {
	digests := make(map[string]digest.Digest)
	_, err := a.ExportTar(discard{}, rgssad.ExportWithProgress(func(r rgssad.Result) {
		digests[r.Entry.Name] = r.Digest
	}))
	return digests, err
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func extractCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "decrypt and extract all entries",
		ArgsUsage: "ARCHIVE",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "destination `DIR` (default: next to the archive)"},
			&cli.BoolFlag{Name: "overwrite", Usage: "replace existing files"},
			&cli.BoolFlag{Name: "flat", Usage: "write every entry directly into the destination"},
			&cli.BoolFlag{Name: "keep-going", Usage: "continue past entries that fail"},
			&cli.BoolFlag{Name: "atomic", Usage: "write through temporary files"},
			&cli.IntFlag{Name: "workers", Value: 1, Usage: "parallel workers"},
		},
		Action: e.action("extract", func(c *cli.Context) error {
			path, err := archiveArg(c)
			if err != nil {
				return err
			}
			out := c.Path("out")
			if out == "" {
				out = strings.TrimSuffix(path, filepath.Ext(path))
			}

			a, err := rgssad.Open(path, rgssad.WithLogger(e.logger))
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.ExtractAll(out,
				rgssad.ExtractWithOverwrite(c.Bool("overwrite")),
				rgssad.ExtractWithCreateDirs(!c.Bool("flat")),
				rgssad.ExtractWithContinueOnError(c.Bool("keep-going")),
				rgssad.ExtractWithAtomicWrites(c.Bool("atomic")),
				rgssad.ExtractWithWorkers(c.Int("workers")),
				rgssad.ExtractWithProgress(func(r rgssad.Result) {
					e.logger.Info("entry", "name", r.Entry.Name, "status", r.Status.String(), "bytes", r.Bytes)
				}),
			)
			fmt.Fprintf(e.out, "%d written, %d skipped, %d failed, %d bytes -> %s\n",
				stats.Written, stats.Skipped, stats.Failed, stats.TotalBytes, out)
			return err
		}),
	}
}

func exportCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "decrypt all entries into a tar file",
		ArgsUsage: "ARCHIVE",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "tar `FILE` to create"},
			&cli.BoolFlag{Name: "zstd", Usage: "compress the tar stream with zstd"},
		},
		Action: e.action("export", func(c *cli.Context) (err error) {
			path, err := archiveArg(c)
			if err != nil {
				return err
			}
			a, err := rgssad.Open(path, rgssad.WithLogger(e.logger))
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(c.Path("out"))
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, f.Close()) }()

			stats, err := a.ExportTar(f, rgssad.ExportWithZstd(c.Bool("zstd")))
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%d entries, %d bytes -> %s\n", stats.Written, stats.TotalBytes, c.Path("out"))
			return nil
		}),
	}
}

func packCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "build an archive from a directory tree",
		ArgsUsage: "DIR ARCHIVE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "revision", Usage: "header revision (1 or 3); default from the archive extension"},
			&cli.UintFlag{Name: "seed", Value: 0x5EED, Usage: "table seed for revision 3 archives"},
		},
		Action: e.action("pack", func(c *cli.Context) (err error) {
			if c.NArg() != 2 {
				return fmt.Errorf("pack: expected DIR and ARCHIVE, got %d arguments", c.NArg())
			}
			dir, dest := c.Args().Get(0), c.Args().Get(1)

			rev := rgssad.Revision(c.Int("revision")) //nolint:gosec // validated below
			if !c.IsSet("revision") {
				engine, ok := rgssad.EngineFromPath(dest)
				if !ok {
					return fmt.Errorf("pack: cannot infer revision from %q; pass --revision", dest)
				}
				rev = engine.Revision()
			}

			files, err := collectFiles(dir, uint32(c.Uint("seed"))) //nolint:gosec // truncation intended
			if err != nil {
				return err
			}

			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, f.Close()) }()

			switch rev {
			case rgssad.Revision1:
				err = toc.WriteV1(f, files)
			case rgssad.Revision3:
				err = toc.WriteV3(f, uint32(c.Uint("seed")), files) //nolint:gosec // truncation intended
			default:
				return fmt.Errorf("pack: unsupported revision %d", c.Int("revision"))
			}
			if err != nil {
				return err
			}
			e.logger.Info("packed archive", "path", dest, "revision", rev.String(), "files", len(files))
			fmt.Fprintf(e.out, "%d files -> %s\n", len(files), dest)
			return nil
		}),
	}
}

// collectFiles reads every regular file under dir, naming it with backslash
// separators. Content keys follow the keystream recurrence from seed.
func collectFiles(dir string, seed uint32) ([]toc.File, error) {
	var files []toc.File
	key := seed
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path) //nolint:gosec // walking an operator-chosen tree
		if err != nil {
			return err
		}
		key = keystream.Advance(key)
		files = append(files, toc.File{
			Name: strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`),
			Data: data,
			Key:  key,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files: %w", err)
	}
	slices.SortFunc(files, func(a, b toc.File) int { return strings.Compare(a.Name, b.Name) })
	return files, nil
}
