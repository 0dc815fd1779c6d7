package utils

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt 摘要；超过 72 字节的口令 bcrypt 会拒绝，此时返回空串
func HashPassword(pw string) string {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(b)
}

// CheckPassword 单向比较；兼容旧系统导入的无盐 md5(hex) 摘要
func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	if isLegacyDigest(hashed) {
		sum := md5.Sum([]byte(pw))
		want := strings.ToLower(hashed)
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(want)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// NeedsRehash 旧摘要在登录成功后升级为 bcrypt
func NeedsRehash(hashed string) bool { return isLegacyDigest(hashed) }

func isLegacyDigest(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
