package keyvault

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileMode 私钥文件权限：仅属主读写
const FileMode os.FileMode = 0o600

// SaveFile 写入加密文件。收紧权限失败只记录警告。
func SaveFile(path string, b *Blob) error {
	data, err := b.Marshal()
	if err != nil {
		return errors.Wrap(err, "keyvault: marshal blob")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "keyvault: mkdir %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return errors.Wrapf(err, "keyvault: open %s", path)
	}
	// 文件可能已存在且权限更宽，O_CREATE 的 mode 不会生效
	if err := restrictPerm(f); err != nil {
		vaultLog.Warnf("无法将 %s 权限设置为 %o: %v", path, FileMode, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "keyvault: write %s", path)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "keyvault: sync %s", path)
	}
	return f.Close()
}

// LoadFile 读取加密文件
func LoadFile(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "keyvault: read %s", path)
	}
	return ParseBlob(data)
}

// SealToFile 加密并写入
func SealToFile(path string, key SigningKey, passphrase string) error {
	b, err := Seal(key, passphrase)
	if err != nil {
		return err
	}
	return SaveFile(path, b)
}

// UnlockFile 读取并解密
func UnlockFile(path, passphrase string) (SigningKey, error) {
	b, err := LoadFile(path)
	if err != nil {
		return SigningKey{}, err
	}
	return Unlock(passphrase, b)
}
