package kvstore

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/disk"
)

// checkFreeSpace refuses startup when the volume holding path is under
// the configured free-space floor.
func checkFreeSpace(path string, minimumFreeGB int, log *slog.Logger) error {
	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}

	freeGB := float64(usage.Free) / 1e9
	log.Info("disk usage",
		"path", path,
		"free_gb", fmt.Sprintf("%.1f", freeGB),
		"used_percent", fmt.Sprintf("%.1f", usage.UsedPercent))

	if freeGB < float64(minimumFreeGB) {
		return fmt.Errorf("%w: %.1f GB free on %s, need %d GB",
			ErrLowDiskSpace, freeGB, path, minimumFreeGB)
	}
	return nil
}
