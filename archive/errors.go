package archive

import (
	"errors"
)

var ErrCreateSampleTdb = errors.New("error creating sample TileDB array")
var ErrWriteSampleTdb = errors.New("error writing sample TileDB array")
var ErrCreateStatsTdb = errors.New("error creating statistics TileDB array")
var ErrWriteStatsTdb = errors.New("error writing statistics TileDB array")
var ErrCreateAttributeTdb = errors.New("error creating attribute for TileDB array")
var ErrCreateSchemaTdb = errors.New("error creating TileDB schema")
var ErrCreateDimTdb = errors.New("error creating TileDB dimension")
var ErrAddFilters = errors.New("error adding filter to filter list")
var ErrSetBuff = errors.New("error setting TileDB buffer")
var ErrFiltList = errors.New("error creating TileDB filter list")
var ErrNewAttr = errors.New("error creating TileDB attribute")
var ErrNewFilt = errors.New("error creating TileDB filter")
var ErrSetFiltList = errors.New("error setting TileDB filter list")
var ErrAddAttr = errors.New("error adding TileDB attribute")
var ErrZstdFilt = errors.New("error creating TileDB zstandard filter")
var ErrNoRawFiles = errors.New("no raw files matched under the given path")
