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

package repoindex

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/repomd/pkg/compress"
	"github.com/kraklabs/repomd/pkg/mdsqlite"
	"github.com/kraklabs/repomd/pkg/mdxml"
)

// Finalize runs the publish sequence: atomically swap the staging
// directory into place, then compress and checksum every document in
// place, reopen and checksum-stamp the SQLite companions, optionally
// rename everything to checksum-prefixed filenames, and finally emit
// repomd.xml. stagingDir must already be fully written and closed by
// the sink trio.
func Finalize(cfg *Config, stagingDir string, logger *slog.Logger, metrics *Metrics) error {
	start := time.Now()
	defer func() {
		if metrics != nil {
			metrics.FinalizeTime.Observe(time.Since(start).Seconds())
		}
	}()

	repodataDir := filepath.Join(cfg.OutputDir, "repodata")
	oldRepodataDir := repodataDir + ".old"

	// Step 1: move prior artifacts aside so the rename in step 2 can
	// never collide with an existing repodata/.
	os.RemoveAll(oldRepodataDir)
	if _, err := os.Stat(repodataDir); err == nil {
		if err := os.Rename(repodataDir, oldRepodataDir); err != nil {
			return &FinalizeError{Step: "move-aside-prior", Err: err}
		}
	}

	// Step 2: atomic rename-swap. This is both the publish-commit point
	// and, together with the staging directory's own creation, the
	// cross-process lock.
	if err := os.Rename(stagingDir, repodataDir); err != nil {
		if _, statErr := os.Stat(oldRepodataDir); statErr == nil {
			os.Rename(oldRepodataDir, repodataDir)
		}
		return &FinalizeError{Step: "publish-rename", Err: err}
	}
	// The staging directory no longer exists under its own name, so the
	// signal guard must stop pointing at it.
	stagingGuardMu.Lock()
	if stagingGuardPath == stagingDir {
		stagingGuardPath = ""
	}
	stagingGuardMu.Unlock()

	revision := time.Now().Unix()
	var records []mdxml.RepomdRecord

	for _, doc := range []struct {
		kind    mdxml.DocKind
		base    string
		repomdT string
	}{
		{mdxml.Primary, "primary", "primary"},
		{mdxml.Filelists, "filelists", "filelists"},
		{mdxml.Other, "other", "other"},
	} {
		rec, err := finalizeXMLDoc(repodataDir, doc.base, doc.repomdT, cfg, revision)
		if err != nil {
			return &FinalizeError{Step: "compress-" + doc.base, Err: err}
		}
		records = append(records, *rec)
	}

	if !cfg.NoDatabase {
		for _, doc := range []struct {
			base, repomdT string
			checksumSrc   string // unused: finalizeSQLiteDoc reads the open checksum from records
		}{
			{"primary", "primary_db", ""},
			{"filelists", "filelists_db", ""},
			{"other", "other_db", ""},
		} {
			rec, err := finalizeSQLiteDoc(repodataDir, doc.base, doc.repomdT, cfg, revision, records)
			if err != nil {
				return &FinalizeError{Step: "database-" + doc.base, Err: err}
			}
			records = append(records, *rec)
		}
	}

	if cfg.GroupFile != "" {
		groupRecords, err := finalizeGroupFile(repodataDir, cfg, revision)
		if err != nil {
			return &FinalizeError{Step: "group-file", Err: err}
		}
		records = append(records, groupRecords...)
	}

	if cfg.UniqueMDFilenames {
		for i := range records {
			renamed, err := uniqueRename(repodataDir, records[i])
			if err != nil {
				return &FinalizeError{Step: "unique-filename-rename", Err: err}
			}
			records[i] = renamed
		}
	}

	body, err := mdxml.SerializeRepomd(revision, records)
	if err != nil {
		return &FinalizeError{Step: "serialize-repomd", Err: err}
	}
	if err := os.WriteFile(filepath.Join(repodataDir, "repomd.xml"), body, 0o644); err != nil {
		return &FinalizeError{Step: "write-repomd", Err: err}
	}

	os.RemoveAll(oldRepodataDir)

	if logger != nil {
		logger.Info("finalize.complete", "repodata", repodataDir, "records", len(records))
	}
	return nil
}

func finalizeXMLDoc(repodataDir, base, repomdType string, cfg *Config, revision int64) (*mdxml.RepomdRecord, error) {
	xmlPath := filepath.Join(repodataDir, base+".xml")

	openChecksum, err := ChecksumFile(xmlPath, cfg.ChecksumType)
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", xmlPath, err)
	}
	info, err := os.Stat(xmlPath)
	if err != nil {
		return nil, err
	}
	openSize := info.Size()

	compressedPath, err := compress.CompressFile(xmlPath, cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", xmlPath, err)
	}
	if err := os.Remove(xmlPath); err != nil {
		return nil, fmt.Errorf("remove uncompressed %s: %w", xmlPath, err)
	}

	checksum, err := ChecksumFile(compressedPath, cfg.ChecksumType)
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", compressedPath, err)
	}
	cinfo, err := os.Stat(compressedPath)
	if err != nil {
		return nil, err
	}

	return &mdxml.RepomdRecord{
		Type:         repomdType,
		Checksum:     checksum,
		ChecksumType: string(cfg.ChecksumType),
		OpenChecksum: openChecksum,
		OpenSize:     openSize,
		Location:     "repodata/" + filepath.Base(compressedPath),
		Timestamp:    revision,
		Size:         cinfo.Size(),
	}, nil
}

// finalizeSQLiteDoc reopens the companion database, stamps it with the
// open (uncompressed) checksum of its matching XML document, then
// compresses and checksums the database file itself, coupling each
// database to the open checksum of its XML sibling.
func finalizeSQLiteDoc(repodataDir, base, repomdType string, cfg *Config, revision int64, xmlRecords []mdxml.RepomdRecord) (*mdxml.RepomdRecord, error) {
	var openChecksum string
	for _, r := range xmlRecords {
		if r.Type == base {
			openChecksum = r.OpenChecksum
			break
		}
	}

	dbPath := filepath.Join(repodataDir, base+".sqlite")
	db, err := mdsqlite.Reopen(dbPath)
	if err != nil {
		return nil, err
	}
	if err := mdsqlite.SetChecksum(db, openChecksum); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, err
	}

	compressedPath, err := compress.CompressFile(dbPath, cfg.Compression)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(dbPath); err != nil {
		return nil, err
	}

	checksum, err := ChecksumFile(compressedPath, cfg.ChecksumType)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(compressedPath)
	if err != nil {
		return nil, err
	}

	return &mdxml.RepomdRecord{
		Type:         repomdType,
		Checksum:     checksum,
		ChecksumType: string(cfg.ChecksumType),
		Location:     "repodata/" + filepath.Base(compressedPath),
		Timestamp:    revision,
		Size:         info.Size(),
		DatabaseVer:  10,
	}, nil
}

// finalizeGroupFile publishes cfg.GroupFile under its own basename
// (comps-style group/comps files are conventionally named after their
// source, not renamed to a fixed filename) and returns two repomd
// records: one for the uncompressed copy kept in repodata/ and one for
// a compressed copy alongside it, since repository clients may fetch
// either form.
func finalizeGroupFile(repodataDir string, cfg *Config, revision int64) ([]mdxml.RepomdRecord, error) {
	src, err := os.Open(cfg.GroupFile)
	if err != nil {
		return nil, fmt.Errorf("open group file %s: %w", cfg.GroupFile, err)
	}
	defer src.Close()

	destName := filepath.Base(cfg.GroupFile)
	destPath := filepath.Join(repodataDir, destName)
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, err
	}
	dst.Close()

	checksum, err := ChecksumFile(destPath, cfg.ChecksumType)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return nil, err
	}

	groupRecord := mdxml.RepomdRecord{
		Type:         "group",
		Checksum:     checksum,
		ChecksumType: string(cfg.ChecksumType),
		Location:     "repodata/" + destName,
		Timestamp:    revision,
		Size:         info.Size(),
	}

	compressedPath, err := compress.CompressFile(destPath, cfg.Compression)
	if err != nil {
		return nil, err
	}
	compressedChecksum, err := ChecksumFile(compressedPath, cfg.ChecksumType)
	if err != nil {
		return nil, err
	}
	cinfo, err := os.Stat(compressedPath)
	if err != nil {
		return nil, err
	}

	groupGzRecord := mdxml.RepomdRecord{
		Type:         "group_gz",
		Checksum:     compressedChecksum,
		ChecksumType: string(cfg.ChecksumType),
		OpenChecksum: checksum,
		OpenSize:     info.Size(),
		Location:     "repodata/" + filepath.Base(compressedPath),
		Timestamp:    revision,
		Size:         cinfo.Size(),
	}

	return []mdxml.RepomdRecord{groupRecord, groupGzRecord}, nil
}

// uniqueRename renames a published artifact to "<checksum>-<basename>",
// the --unique-md-filenames convention that lets mirrors and CDNs cache
// each metadata version under an immutable name, and returns an updated
// record pointing at the new location.
func uniqueRename(repodataDir string, rec mdxml.RepomdRecord) (mdxml.RepomdRecord, error) {
	oldPath := filepath.Join(repodataDir, filepath.Base(rec.Location))
	newName := rec.Checksum + "-" + filepath.Base(rec.Location)
	newPath := filepath.Join(repodataDir, newName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return rec, err
	}
	rec.Location = "repodata/" + newName
	return rec, nil
}
