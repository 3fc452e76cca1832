package common

import (
	"io"
	"os"
	"path/filepath"
)

func MkdirForFile(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return nil
}

// CopyFile is the fallback for cache hits when hard linking is impossible
// (cache and build tree on different filesystems, EPERM on the mount, etc.).
func CopyFile(srcPath string, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if err1 := dst.Close(); err1 != nil && err == nil {
		err = err1
	}
	return err
}

func FileSize(fileName string) int64 {
	stat, err := os.Stat(fileName)
	if err != nil {
		return 0
	}
	return stat.Size()
}
