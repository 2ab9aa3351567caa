// Package rgssad reads the encrypted game-data containers of the RGSS engine
// family and extracts the files they hold.
//
// Containers are recognized by their extension (.rgssad, .rgss2a, .rgss3a)
// and, authoritatively, by their header: the signature "RGSSAD", a zero byte
// and a revision byte. Revision 1 is used by .rgssad and .rgss2a files,
// revision 3 by .rgss3a files. Every entry's content is protected by a
// rolling XOR keystream seeded with a per-entry key.
//
// # Quick Start
//
// Extract a whole archive:
//
//	a, err := rgssad.Open("Game.rgss3a")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	stats, err := a.ExtractAll("./out")
//
// Extract one entry without its directory structure, replacing an
// existing file:
//
//	for _, e := range a.Entries() {
//	    if e.Name == `Data\System.rvdata2` {
//	        _, err = a.ExtractOne(e, "./out",
//	            rgssad.ExtractWithCreateDirs(false),
//	            rgssad.ExtractWithOverwrite(true),
//	        )
//	    }
//	}
//
// # Safety
//
// Entry names are untrusted. Names that are absolute or contain ".."
// elements are rejected with [ErrCorruptArchive], and all writes go through
// an [os.Root] so that symbolic links inside the destination cannot be used
// to escape it either.
//
// # Concurrency
//
// An Archive owns a single cursor-based file handle and is not safe for
// concurrent use. [ExtractWithWorkers] extracts in parallel by giving every
// worker its own handle on the archive path.
package rgssad
