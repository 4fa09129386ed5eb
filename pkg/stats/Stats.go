package stats

import "syscall"
import "time"

import "github.com/raftkit/snapshot/pkg/logger"


var Log = clog.NewCustomLog(NAME)


/*
	CalculateCurrentStats reports disk space for the filesystem backing path -- the snapshot
	store's root directory, so pkg/metrics can expose how much room is left for the next
	committed snapshot before the disk fills up
*/

func CalculateCurrentStats(path string) (*Stats, error) {
	var stat syscall.Statfs_t

	statErr := syscall.Statfs(path, &stat)
	if statErr != nil {
		Log.Error("error getting disk space for", path, ":", statErr.Error())
		return nil, statErr
	}

	blockSize := uint64(stat.Bsize)
	available := int64(stat.Bavail * blockSize)
	total := int64(stat.Blocks * blockSize)
	used := int64((stat.Blocks - stat.Bfree) * blockSize)

	currTime := time.Now()
	formattedTime := currTime.Format(time.RFC3339)

	return &Stats{
		AvailableDiskSpaceInBytes: available,
		TotalDiskSpaceInBytes: total,
		UsedDiskSpaceInBytes: used,
		Timestamp: formattedTime,
	}, nil
}
