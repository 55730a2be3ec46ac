package common

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	NA       = "N/A"
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a cluster-unique int64 id.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a cluster-unique string id.
func UUID() string {
	return snowflakeNode.Generate().String()
}

func GetSecretSalt() string {
	salt := os.Getenv("LOOMOPOS_SECRET_SALT")
	if salt == "" {
		salt = "loomopos-fixed-salt"
	}
	return salt
}

func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

var phoneRegexp = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether s is an exact ten digit phone number.
func ValidPhone(s string) bool {
	return phoneRegexp.MatchString(strings.TrimSpace(s))
}

// DayStart returns midnight of the day t falls in, local time.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
