package alloc

import (
	"log/slog"

	"github.com/joshuapare/heapkit/internal/format"
)

// Config controls heap growth.
type Config struct {
	// Name for this configuration (for logs and benchmarks)
	Name string

	// ChunkSize is the minimum number of bytes requested from the region
	// whenever no free block fits.
	ChunkSize int

	// InitialSize is the size of the first extension performed by New.
	InitialSize int

	// Logger receives allocator logs. nil uses the package logger.
	Logger *slog.Logger
}

// Predefined configurations.
var (
	// ConfigStandard matches the classic malloc-lab constants: 4KB chunks.
	ConfigStandard = Config{
		Name:        "Standard",
		ChunkSize:   format.ChunkSize,
		InitialSize: format.ChunkSize,
	}

	// ConfigLarge grows in 64KB steps, trading footprint for fewer extensions.
	ConfigLarge = Config{
		Name:        "Large",
		ChunkSize:   1 << 16,
		InitialSize: 1 << 16,
	}

	// ConfigTight grows only by what each request needs (one minimum block
	// at init), which makes every extension visible in tests.
	ConfigTight = Config{
		Name:        "Tight",
		ChunkSize:   format.MinBlockSize,
		InitialSize: format.MinBlockSize,
	}

	// DefaultConfig is used when New is given a nil config.
	DefaultConfig = ConfigStandard
)

// normalized fills zero fields from DefaultConfig and rounds sizes to the
// alignment unit, never below one minimum block.
func (c Config) normalized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultConfig.ChunkSize
	}
	if c.InitialSize <= 0 {
		c.InitialSize = c.ChunkSize
	}
	c.ChunkSize = max(format.AlignDSize(c.ChunkSize), format.MinBlockSize)
	c.InitialSize = max(format.AlignDSize(c.InitialSize), format.MinBlockSize)
	return c
}
