//go:build unix

package keyvault

import (
	"os"

	"golang.org/x/sys/unix"
)

func restrictPerm(f *os.File) error {
	return unix.Fchmod(int(f.Fd()), uint32(FileMode))
}
