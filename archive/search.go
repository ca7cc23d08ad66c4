package archive

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively matches pattern against basenames under uri, using
// TileDB's VFS so the same code walks a local filesystem or an object
// store. Adapted from the teacher's GSF file trawler.
func trawl(vfs *tiledb.VFS, pattern, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

// FindRaw recursively searches uri for raw acquisition files: *.??R
// (3D hourly files) and *.??S (2D hourly files), per spec.md's filename
// convention. configUri, if non-empty, points to a TileDB config for
// object-store credentials; an empty string uses the default config.
func FindRaw(uri, configUri string) ([]string, error) {
	var (
		config *tiledb.Config
		err    error
	)

	if configUri == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configUri)
	}
	if err != nil {
		return nil, err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	items := make([]string, 0)
	for _, pattern := range []string{"*.??R", "*.??S"} {
		items, err = trawl(vfs, pattern, uri, items)
		if err != nil {
			return nil, err
		}
	}

	if len(items) == 0 {
		return nil, ErrNoRawFiles
	}

	return items, nil
}
