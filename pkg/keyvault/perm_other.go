//go:build !unix

package keyvault

import "os"

func restrictPerm(f *os.File) error {
	return os.Chmod(f.Name(), FileMode)
}
