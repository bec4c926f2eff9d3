package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewUserID returns an anonymous per-incarnation id: user_<unix-millis>_<9 chars>.
func NewUserID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), suffix)
}
