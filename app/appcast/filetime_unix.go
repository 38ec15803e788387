//go:build linux || darwin || freebsd

package appcast

import (
	"time"

	"golang.org/x/sys/unix"
)

// changeTime returns the inode change time, which for a freshly created
// link is when it was published.
func changeTime(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	return time.Unix(st.Ctim.Unix()), nil
}
